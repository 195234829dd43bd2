package analytics

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/kafka"
)

// HandleEvent returns a Kafka handler that feeds published search and corpus
// events into agg. Unknown event types are skipped without error so they are
// still committed.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(_ context.Context, _ []byte, value []byte) error {
		head, err := kafka.DecodeJSON[struct {
			Type EventType `json:"type"`
		}](value)
		if err != nil {
			return err
		}
		switch head.Type {
		case EventSearch, EventZeroResult:
			event, err := kafka.DecodeJSON[SearchEvent](value)
			if err != nil {
				return err
			}
			agg.Track(event)
		case EventCorpus:
			event, err := kafka.DecodeJSON[CorpusEvent](value)
			if err != nil {
				return err
			}
			agg.TrackCorpus(event)
		case "":
			return fmt.Errorf("analytics event without type")
		}
		return nil
	}
}

package sink

import (
	"context"
	"fmt"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
)

// Apply drives a Facade with the ops produced by a single
// translator.Translate call, in order. It is the glue the control loop
// uses so it never has to switch on sinkops.Kind itself.
func Apply(ctx context.Context, f Facade, ops []sinkops.Op) error {
	for _, op := range ops {
		switch op.Kind {
		case sinkops.KindOpenTimeline:
			if err := f.OpenTimeline(ctx, op.Timeline, op.TimelineName, op.TimelineAttrs); err != nil {
				return err
			}
		case sinkops.KindEmitEvent:
			if _, err := f.EmitEvent(ctx, op.Timeline, op.EventName, op.EventAttrs); err != nil {
				return err
			}
		case sinkops.KindEmitInteraction:
			if err := f.EmitInteraction(ctx, op.SrcTimeline, op.SrcOrdinal, op.DstTimeline); err != nil {
				return err
			}
		default:
			return fmt.Errorf("sink: unknown op kind %v", op.Kind)
		}
	}
	return nil
}

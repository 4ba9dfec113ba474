package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/snow-change-connector/internal/domain"
	"github.com/samvad-hq/snow-change-connector/internal/logger"
	"github.com/samvad-hq/snow-change-connector/pkg/servicenow"
	"github.com/samvad-hq/snow-change-connector/pkg/sinks"
)

// Processor turns successful connector responses into sink events, skipping
// records that were already forwarded.
type Processor struct {
	sender  EventSender
	deduper Deduper
	log     logger.Logger
}

// NewProcessor wires a processor. A nil sender drops events and a nil deduper
// forwards every record.
func NewProcessor(sender EventSender, deduper Deduper, log logger.Logger) *Processor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Processor{sender: sender, deduper: deduper, log: log}
}

// Records decodes the rows carried by resp.
func Records(table string, op domain.Operation, resp *servicenow.Response) ([]domain.ChangeRecord, error) {
	rows, err := servicenow.DecodeRecords(resp)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChangeRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ChangeRecord{
			Table:     table,
			Operation: op,
			ID:        row.ID(),
			Number:    row.Number(),
			Fields:    row,
		})
	}
	return out, nil
}

// Process forwards the fresh records in resp and returns how many were sent.
func (p *Processor) Process(ctx context.Context, table string, op domain.Operation, resp *servicenow.Response) (int, error) {
	records, err := Records(table, op, resp)
	if err != nil {
		return 0, fmt.Errorf("decode %s response: %w", op, err)
	}

	fresh := p.filterNew(records)
	if len(fresh) == 0 {
		p.log.DebugObj("no new records to forward", "collector_result", map[string]any{
			"table":     table,
			"operation": op,
			"decoded":   len(records),
		})
		return 0, nil
	}

	var errs []error
	forwarded := 0
	for _, rec := range fresh {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.forward(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
			continue
		}
		forwarded++
	}

	p.log.InfoObj("records forwarded", "collector_result", map[string]any{
		"table":     table,
		"operation": op,
		"decoded":   len(records),
		"forwarded": forwarded,
	})
	return forwarded, errors.Join(errs...)
}

func (p *Processor) forward(ctx context.Context, rec domain.ChangeRecord) error {
	if p.sender != nil {
		evt := sinks.NewEvent(rec.Table, string(rec.Operation), rec.ID, rec.Number, rec.Fields)
		if _, err := p.sender.Send(ctx, evt); err != nil {
			return err
		}
	}
	if p.deduper == nil || rec.ID == "" {
		return nil
	}
	if err := p.deduper.MarkRecord(rec.Table, rec.ID); err != nil {
		return fmt.Errorf("mark forwarded: %w", err)
	}
	return nil
}

// filterNew drops records already forwarded. A lookup failure keeps the
// record so it is not lost.
func (p *Processor) filterNew(records []domain.ChangeRecord) []domain.ChangeRecord {
	if p.deduper == nil {
		return records
	}

	out := make([]domain.ChangeRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			out = append(out, rec)
			continue
		}
		seen, err := p.deduper.SeenRecord(rec.Table, rec.ID)
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "collector_error", map[string]any{
				"table":     rec.Table,
				"record_id": rec.ID,
				"error":     err.Error(),
			})
			out = append(out, rec)
			continue
		}
		if !seen {
			out = append(out, rec)
		}
	}
	return out
}

package worker

// export_worker.go
// Processes data-export jobs from QueueExport. Export is a sensitive
// operation (step-up protected at the API boundary); the worker itself only
// dumps the requested tenant's orders to a JSON file under the export path.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"platepos/internal/dto"
	"platepos/internal/repository"

	"github.com/rs/zerolog/log"
)

// exportPageSize bounds one repository read per chunk.
const exportPageSize = 500

// ExportJobPayload is the job envelope sent to QueueExport.
type ExportJobPayload struct {
	RequestedBy  string `json:"requested_by"`
	RestaurantID string `json:"restaurant_id,omitempty"` // empty = all tenants (admin)
}

type ExportWorker struct {
	orders      repository.OrderRepository
	storagePath string
}

func NewExportWorker(orders repository.OrderRepository, storagePath string) *ExportWorker {
	return &ExportWorker{orders: orders, storagePath: storagePath}
}

// Process writes the order dump to storagePath/export_{ts}.json.
func (w *ExportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ExportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("export_worker: invalid payload")
		return
	}
	if err := os.MkdirAll(w.storagePath, 0o755); err != nil {
		log.Error().Err(err).Msg("export_worker: create storage dir")
		return
	}

	fileName := fmt.Sprintf("export_%s.json", time.Now().Format("20060102T150405"))
	filePath := filepath.Join(w.storagePath, fileName)
	f, err := os.Create(filePath)
	if err != nil {
		log.Error().Err(err).Str("path", filePath).Msg("export_worker: create file")
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	filter := dto.OrderFilter{
		Status:       "all",
		RestaurantID: payload.RestaurantID,
		Page:         1,
		Limit:        exportPageSize,
	}
	exported := 0
	for {
		orders, total, err := w.orders.List(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("export_worker: list orders")
			return
		}
		for i := range orders {
			if err := enc.Encode(&orders[i]); err != nil {
				log.Error().Err(err).Msg("export_worker: encode order")
				return
			}
		}
		exported += len(orders)
		if int64(exported) >= total || len(orders) == 0 {
			break
		}
		filter.Page++
	}

	log.Info().
		Str("requested_by", payload.RequestedBy).
		Str("path", filePath).
		Int("orders", exported).
		Msg("export_worker: export complete")
}

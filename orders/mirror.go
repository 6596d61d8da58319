package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pizza-ordering-api/models"
)

// mirror rewrites the JSON copy of the order log. The file uses the same
// shape MigrateLegacy reads, so it can seed a fresh database. Failures are
// logged and never fail the mutation that triggered them.
func (s *Store) mirror(ctx context.Context) {
	if s.mirrorPath == "" {
		return
	}
	if err := s.writeMirror(ctx); err != nil {
		s.log.Error(s.log.WithField(ctx, "path", s.mirrorPath), "order.mirror_failed", err)
	}
}

func (s *Store) writeMirror(ctx context.Context) error {
	var all []models.Order
	if err := s.db.WithContext(ctx).Order("id asc").Find(&all).Error; err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	for i := range all {
		all[i] = normalize(all[i])
	}
	if all == nil {
		all = []models.Order{}
	}

	payload, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	return writeFileAtomic(s.mirrorPath, payload)
}

// writeFileAtomic replaces path through a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	return nil
}

package history

import (
	"fmt"
	"time"
)

// SetSchemaVersionForTest overwrites the stored schema version.
func (s *Store) SetSchemaVersionForTest(version int) error {
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

// SetClockForTest fixes the time the retention job measures age from.
func (r *Retention) SetClockForTest(now func() time.Time) {
	r.now = now
}

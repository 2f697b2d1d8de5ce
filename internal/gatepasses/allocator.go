package gatepasses

import (
	"context"
	"fmt"
	"time"
)

const (
	seedSequenceSQL = `INSERT INTO pass_sequences (year, last_value, updated_at)
SELECT ?, COUNT(*), CURRENT_TIMESTAMP FROM gate_passes WHERE number_year = ?
ON CONFLICT (year) DO NOTHING`

	resyncSequenceSQL = `UPDATE pass_sequences
SET last_value = (SELECT COALESCE(MAX(number_seq), 0) FROM gate_passes WHERE number_year = ?), updated_at = ?
WHERE year = ? AND last_value < (SELECT COALESCE(MAX(number_seq), 0) FROM gate_passes WHERE number_year = ?)`

	incrementSequenceSQL = `UPDATE pass_sequences
SET last_value = last_value + 1, updated_at = ?
WHERE year = ?
RETURNING last_value`
)

// NextSequence reserves the next pass sequence for year. The counter row is
// seeded from the number of passes already created that year, so the first
// allocation continues the existing count. The increment holds the row lock
// until the surrounding transaction ends, which serializes concurrent
// creators. resync lifts the counter to the highest stored sequence after a
// uniqueness conflict.
func (r *repositoryImpl) NextSequence(ctx context.Context, year int, now time.Time, resync bool) (int, error) {
	conn := r.DB(ctx)
	if err := conn.Exec(seedSequenceSQL, year, year).Error; err != nil {
		return 0, fmt.Errorf("seed pass sequence: %w", err)
	}
	if resync {
		if err := conn.Exec(resyncSequenceSQL, year, now, year, year).Error; err != nil {
			return 0, fmt.Errorf("resync pass sequence: %w", err)
		}
	}
	var next int64
	if err := conn.Raw(incrementSequenceSQL, now, year).Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("increment pass sequence: %w", err)
	}
	if next <= 0 {
		return 0, fmt.Errorf("pass sequence for %d not allocated", year)
	}
	return int(next), nil
}

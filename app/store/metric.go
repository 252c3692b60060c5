package store

import "database/sql"

type Metric struct {
	Timestamp    string
	LatencyMS    float64
	Throughput   float64
	RTT          float64
	RequestCount int64
}

// MetricStore persists per-request performance records; it is the metrics
// sink the connection server reports into.
type MetricStore struct {
	db *DB
}

func NewMetricStore(db *DB) *MetricStore {
	return &MetricStore{db: db}
}

func (s *MetricStore) Record(latencyMS, throughput, rtt float64, requestCount int64) error {
	return s.db.Execute(
		`INSERT INTO performance_metrics (timestamp, latency_ms, throughput, rtt, request_count)
		 VALUES (?, ?, ?, ?, ?)`,
		now(), latencyMS, throughput, rtt, requestCount,
	)
}

// Recent returns the last limit records in chronological order.
func (s *MetricStore) Recent(limit int) ([]*Metric, error) {
	var metrics []*Metric
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var m Metric
		if err := rows.Scan(&m.Timestamp, &m.LatencyMS, &m.Throughput, &m.RTT, &m.RequestCount); err != nil {
			return err
		}
		metrics = append(metrics, &m)
		return nil
	}, `SELECT timestamp, latency_ms, throughput, rtt, request_count
		FROM performance_metrics ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	for left, right := 0, len(metrics)-1; left < right; left, right = left+1, right-1 {
		metrics[left], metrics[right] = metrics[right], metrics[left]
	}
	return metrics, nil
}

package audit

import "sync"

// Log is the append-only, in-memory audit list of one table. Connection
// goroutines read pages while the table appends, so it is safe for
// concurrent use.
type Log struct {
	mu      sync.RWMutex
	records []Record
}

// NewLog returns a log seeded with records, oldest first.
func NewLog(records ...Record) *Log {
	return &Log{records: append([]Record(nil), records...)}
}

// Append adds a finished round.
func (l *Log) Append(rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Page returns one page of the log, newest first.
func (l *Log) Page(page, size int) PageResponse {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Paginate(l.records, page, size)
}

// Last returns the most recent record.
func (l *Log) Last() (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// Records returns a copy of every record, oldest first.
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Record(nil), l.records...)
}

package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Publisher receives aggregated error logs when the collector flushes.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // max unique logs before flush
	Topic          string
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates repeated error logs and ships them in batches,
// so a flapping upstream does not flood the log pipeline.
type LogCollector struct {
	config *CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	ctx, cancel := context.WithCancel(context.Background())

	collector := &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
		ctx:    ctx,
		cancel: cancel,
	}

	collector.wg.Add(1)
	go collector.periodicFlush()

	return collector
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := logKey(level, message, caller)

	d.mutex.Lock()
	if entry, ok := d.logMap[key]; ok {
		entry.Count++
		entry.LastSeen = now
		entry.Fields = fields
	} else {
		d.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	over := d.config.CountThreshold > 0 && len(d.logMap) >= d.config.CountThreshold
	d.mutex.Unlock()

	if over {
		d.flush()
	}
}

func (d *LogCollector) periodicFlush() {
	defer d.wg.Done()

	interval := d.config.TimeInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.flush()
			return
		case <-ticker.C:
			d.flush()
		}
	}
}

func (d *LogCollector) flush() {
	d.mutex.Lock()
	if len(d.logMap) == 0 {
		d.mutex.Unlock()
		return
	}
	entries := make([]*AggregatedLogEntry, 0, len(d.logMap))
	for _, e := range d.logMap {
		entries = append(entries, e)
	}
	d.logMap = make(map[string]*AggregatedLogEntry)
	d.mutex.Unlock()

	if d.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.config.Publisher.PublishMessage(ctx, d.config.Topic, entries)
}

func (d *LogCollector) Close() {
	d.cancel()
	d.wg.Wait()
}

func logKey(level, message, caller string) string {
	b, _ := json.Marshal([]string{level, message, caller})
	return fmt.Sprintf("%x", sha256.Sum256(b))
}

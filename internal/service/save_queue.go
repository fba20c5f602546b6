package service

import (
	"context"
	"sync"

	"github.com/fitit/internal/metrics"
	"go.uber.org/zap"
)

// saveQueueBuffer 是写协程落后时可积压的快照数。
// enqueue 在持有存储写锁时调用，缓冲区满后会阻塞，读操作随之等待写入追上。
const saveQueueBuffer = 1024

type saveJob struct {
	payload string
	barrier chan struct{}
}

// saveQueue 为单个集合串行写入偏好存储。
// 只有一个写协程按入队顺序执行，较晚的快照不会先于较早的快照落盘；
// 写入失败只记录日志和指标，不重试。
type saveQueue struct {
	collection string
	key        string
	prefs      PreferenceStore
	logger     *zap.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan saveJob
	done   chan struct{}
}

func newSaveQueue(collection, key string, prefs PreferenceStore, logger *zap.Logger) *saveQueue {
	q := &saveQueue{
		collection: collection,
		key:        key,
		prefs:      prefs,
		logger:     logger,
		jobs:       make(chan saveJob, saveQueueBuffer),
		done:       make(chan struct{}),
	}
	go q.run()
	return q
}

// enqueue 提交一份完整快照，返回 false 表示队列已关闭
func (q *saveQueue) enqueue(payload string) bool {
	return q.send(saveJob{payload: payload})
}

func (q *saveQueue) send(job saveJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs <- job
	return true
}

// flush 等待此前入队的写入全部完成
func (q *saveQueue) flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !q.send(saveJob{barrier: barrier}) {
		// 已关闭的队列在 close 返回前已经排空
		<-q.done
		return nil
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close 拒绝新的写入并等待已入队的写入完成
func (q *saveQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	<-q.done
}

func (q *saveQueue) run() {
	defer close(q.done)

	for job := range q.jobs {
		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		q.write(job.payload)
	}
}

func (q *saveQueue) write(payload string) {
	if err := q.prefs.Put(context.Background(), q.key, payload); err != nil {
		metrics.SaveFailures.WithLabelValues(q.collection).Inc()
		q.logger.Error("save collection failed",
			zap.String("collection", q.collection),
			zap.String("key", q.key),
			zap.Int("bytes", len(payload)),
			zap.Error(err),
		)
		return
	}

	metrics.SavesCompleted.WithLabelValues(q.collection).Inc()
	q.logger.Debug("collection saved",
		zap.String("collection", q.collection),
		zap.Int("bytes", len(payload)),
	)
}

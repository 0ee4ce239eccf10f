package notify

import (
	"log"
	"time"

	"secondhand_market/internal/pkg/push"
)

// 通知类型
const (
	KindNegotiationCreated  = "negotiation_created"
	KindNegotiationApproved = "negotiation_approved"
	KindNegotiationRejected = "negotiation_rejected"
	KindOrderCreated        = "order_created"
	KindOrderStatusChanged  = "order_status_changed"
)

// Event 通知事件
// 投递失败只记日志，绝不回滚触发它的业务操作
type Event struct {
	RecipientID string
	Kind        string
	Title       string
	Body        string
	DeepLink    string // 客户端跳转路径，如 /orders/xxx
	Retry       int    // 重试次数
}

// Dispatcher 异步通知分发器
type Dispatcher struct {
	TaskQueue  chan Event
	RetryQueue chan Event // 重试队列
	WorkerNum  int
	MaxRetry   int // 最大重试次数
}

func NewDispatcher(workerNum int, bufferSize int) *Dispatcher {
	return &Dispatcher{
		TaskQueue:  make(chan Event, bufferSize),
		RetryQueue: make(chan Event, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.WorkerNum; i++ {
		go d.worker(i)
	}
	// 启动重试处理协程
	go d.retryWorker()
	log.Printf("Notification dispatcher started with %d workers", d.WorkerNum)
}

// Dispatch 入队通知，队列满直接丢弃
func (d *Dispatcher) Dispatch(e Event) {
	select {
	case d.TaskQueue <- e:
		// 入队成功
	default:
		log.Printf("Notification queue full, dropping event: %+v", e)
	}
}

func (d *Dispatcher) worker(id int) {
	for e := range d.TaskQueue {
		if err := d.deliver(e); err != nil {
			log.Printf("[NotifyWorker %d] Failed to deliver (recipient: %s, kind: %s): %v",
				id, e.RecipientID, e.Kind, err)

			// 如果未达到最大重试次数，加入重试队列
			if e.Retry < d.MaxRetry {
				e.Retry++
				select {
				case d.RetryQueue <- e:
				default:
					log.Printf("[NotifyWorker %d] Retry queue full, event dropped: %+v", id, e)
				}
			} else {
				log.Printf("[NotifyWorker %d] Event exceeded max retries, dropped: %+v", id, e)
			}
		}
	}
}

func (d *Dispatcher) retryWorker() {
	for e := range d.RetryQueue {
		// 延迟重试，避免立即重试
		time.Sleep(time.Duration(e.Retry) * time.Second)

		select {
		case d.TaskQueue <- e:
		default:
			log.Printf("[NotifyRetry] Main queue full, event dropped: %+v", e)
		}
	}
}

func (d *Dispatcher) deliver(e Event) error {
	// 推送服务未配置时静默跳过（开发环境）
	if push.GlobalPushService == nil {
		log.Printf("[Notify] push disabled, event: recipient=%s kind=%s title=%s", e.RecipientID, e.Kind, e.Title)
		return nil
	}

	ext := map[string]string{
		"kind": e.Kind,
	}
	if e.DeepLink != "" {
		ext["deep_link"] = e.DeepLink
	}

	return push.GlobalPushService.PushToAccount(e.RecipientID, e.Title, e.Body, ext)
}

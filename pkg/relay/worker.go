package relay

import (
	"context"
	"time"

	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/queue"
)

const broadcastDrainInterval = 10 * time.Millisecond

// broadcastRequest is one actions frame queued for room fan-out.
type broadcastRequest struct {
	roomID   string
	senderID string
	frame    []byte
}

// BroadcastWorker drains the broadcast queue and fans actions frames out to
// room members. Write failures are logged and the member is skipped; the
// reader for that connection tears it down.
type BroadcastWorker struct {
	hub            *Hub
	broadcastQueue queue.Queue
}

type NewBroadcastWorkerOptions struct {
	Hub            *Hub
	BroadcastQueue queue.Queue
}

func NewBroadcastWorker(opts NewBroadcastWorkerOptions) *BroadcastWorker {
	return &BroadcastWorker{
		hub:            opts.Hub,
		broadcastQueue: opts.BroadcastQueue,
	}
}

func (w *BroadcastWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(broadcastDrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items, err := w.broadcastQueue.ReadAllMessages()
			if err != nil {
				log.Error("Failed to read broadcast queue: %v", err)
				continue
			}
			for _, item := range items {
				request, ok := item.(*broadcastRequest)
				if !ok {
					log.Error("Unexpected broadcast item type: %T", item)
					continue
				}
				w.broadcast(ctx, request)
			}
		}
	}
}

func (w *BroadcastWorker) broadcast(ctx context.Context, request *broadcastRequest) {
	for _, member := range w.hub.members(request.roomID, request.senderID) {
		if err := member.send(ctx, request.frame); err != nil {
			log.Debug("Failed to send to client %s: %v", member.id, err)
		}
	}
}

package ws

import (
	"log"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub. Delivery
// is best-effort: failures are logged and never reach the calling mutation.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, msg.SenderID)
}

func (n *HubNotifier) NotifyEditedMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageEdited, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, nil)
}

func (n *HubNotifier) NotifyDeletedMessage(conversationID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleted, &conversationID, MessageDeletedPayload{ID: messageID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}

func (n *HubNotifier) NotifyNotification(notification *domain.Notification) {
	evt, err := NewEvent(EventTypeNotificationNew, nil, NotificationPayload{Notification: *notification})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToUser(notification.UserID, evt)
}

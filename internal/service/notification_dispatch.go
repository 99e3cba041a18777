package service

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
)

const (
	// previewLimit bounds notification content previews: at most 100 chars of
	// content plus the 3-char ellipsis marker.
	previewLimit = 100
	// editPreviewLimit bounds each side of an edit notification preview.
	editPreviewLimit = 50

	ellipsisMarker = "..."
	editSeparator  = " → "
)

// truncate cuts s at limit characters, not bytes, and appends the ellipsis
// marker when it had to cut. A cut must never split a multi-byte rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsisMarker
}

// buildMessageNotifications derives the notification rows for a freshly
// created message: the explicit receiver when one is set, otherwise every
// participant except the sender. The parent message's author gets a reply
// notification instead of a plain message one.
func buildMessageNotifications(msg *domain.Message, parent *domain.Message, sender *domain.User, participants []domain.User) []domain.Notification {
	var recipients []domain.User
	if msg.ReceiverID != nil {
		for _, p := range participants {
			if p.ID == *msg.ReceiverID {
				recipients = append(recipients, p)
				break
			}
		}
	} else {
		for _, p := range participants {
			if p.ID != sender.ID {
				recipients = append(recipients, p)
			}
		}
	}

	preview := truncate(msg.Content, previewLimit)

	var notifications []domain.Notification
	for _, recipient := range recipients {
		if recipient.ID == sender.ID {
			continue
		}

		typ := domain.NotificationTypeMessage
		title := "New message from " + sender.FullName()
		if parent != nil && parent.SenderID != nil && *parent.SenderID == recipient.ID {
			typ = domain.NotificationTypeReply
			title = "New reply from " + sender.FullName()
		}

		notifications = append(notifications, domain.Notification{
			ID:        uuid.New(),
			UserID:    recipient.ID,
			MessageID: &msg.ID,
			Type:      typ,
			Title:     title,
			Content:   preview,
			CreatedAt: msg.CreatedAt,
		})
	}
	return notifications
}

// buildEditNotifications derives edit notifications for every participant
// except the editor, previewing old and new content around the separator.
func buildEditNotifications(msg *domain.Message, editor *domain.User, participants []domain.User, oldContent, newContent string, at time.Time) []domain.Notification {
	title := editor.FullName() + " edited a message"
	content := truncate(oldContent, editPreviewLimit) + editSeparator + truncate(newContent, editPreviewLimit)

	var notifications []domain.Notification
	for _, participant := range participants {
		if participant.ID == editor.ID {
			continue
		}
		notifications = append(notifications, domain.Notification{
			ID:        uuid.New(),
			UserID:    participant.ID,
			MessageID: &msg.ID,
			Type:      domain.NotificationTypeEdit,
			Title:     title,
			Content:   content,
			CreatedAt: at,
		})
	}
	return notifications
}

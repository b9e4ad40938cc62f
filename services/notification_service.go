package services

import (
	"fmt"
	"log"

	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/realtime"
)

// NotificationEvent describes one triggering domain event to fan out.
type NotificationEvent struct {
	Type  string
	Title string
	Body  string
	Data  map[string]any // opaque deep-link payload, stored and pushed as-is
}

// Notify fans out a domain event to a user: it writes the notification row
// recording the channels attempted, pushes a realtime event to the user's
// open sessions, then attempts email and SMS on whichever channels the user
// has not disabled. The row is written even for users who disabled in-app
// delivery; opting out only removes in_app from the channel list and skips
// the realtime push.
//
// Delivery is best-effort and at-most-once. Each channel failure is logged
// and swallowed independently so one provider outage never blocks the others,
// and the returned error only reflects the row write. Callers must not fail
// their triggering business operation on a Notify error.
func Notify(user *models.User, event NotificationEvent) (*models.Notification, error) {
	channels := enabledChannels(user)

	notification := &models.Notification{
		UserID:   user.ID,
		Type:     event.Type,
		Title:    event.Title,
		Body:     event.Body,
		Data:     event.Data,
		Channels: channels,
	}

	if err := config.GetDB().Create(notification).Error; err != nil {
		log.Printf("notification: failed to write record for user %d: %v", user.ID, err)
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	if user.InAppEnabled {
		realtime.GetHub().Publish(user.ID, realtime.Event{
			Type: "notification.created",
			Data: notification,
		})
	}

	for _, channel := range channels {
		switch channel {
		case models.ChannelEmail:
			email := GetEmailService()
			if email == nil {
				continue // integration not configured
			}
			if err := email.Send(user.Email, event.Title, event.Body); err != nil {
				log.Printf("notification: email to user %d failed: %v", user.ID, err)
			}
		case models.ChannelSMS:
			sms := GetSMSService()
			if sms == nil {
				continue
			}
			if user.Phone == "" {
				log.Printf("notification: user %d has SMS enabled but no phone number", user.ID)
				continue
			}
			if _, err := sms.Send(user.Phone, event.Title+": "+event.Body); err != nil {
				log.Printf("notification: SMS to user %d failed: %v", user.ID, err)
			}
		}
	}

	return notification, nil
}

// enabledChannels returns the channels the user has not opted out of.
func enabledChannels(user *models.User) []string {
	channels := []string{}
	if user.InAppEnabled {
		channels = append(channels, models.ChannelInApp)
	}
	if user.EmailEnabled {
		channels = append(channels, models.ChannelEmail)
	}
	if user.SMSEnabled {
		channels = append(channels, models.ChannelSMS)
	}
	return channels
}

package Slack

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/slack-go/slack"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Client posts emergency work order alerts to the operations channel.
type Client struct {
	api     *slack.Client
	channel string
}

// NewFromEnv returns nil when SLACK_BOT_TOKEN or SLACK_ALERT_CHANNEL is
// unset, which disables Slack delivery without any caller-side config.
func NewFromEnv() *Client {
	botToken := os.Getenv("SLACK_BOT_TOKEN")
	channel := os.Getenv("SLACK_ALERT_CHANNEL")
	if botToken == "" || channel == "" {
		return nil
	}
	return &Client{
		api:     slack.New(botToken),
		channel: channel,
	}
}

// EmergencyAssigned announces that an emergency order has a technician on it.
func (c *Client) EmergencyAssigned(order *Models.WorkOrder, technicianName string) {
	var message strings.Builder
	message.WriteString(":rotating_light: *Emergency work order assigned*\n")
	message.WriteString(fmt.Sprintf("*%s* %s\n", order.WorkOrderNumber, order.Title))
	if technicianName != "" {
		message.WriteString(fmt.Sprintf("Technician: %s\n", technicianName))
	}
	if order.ScheduledStart != nil {
		message.WriteString(fmt.Sprintf("Scheduled: %s\n", order.ScheduledStart.Format("Mon 2 Jan 15:04")))
	}
	c.post(message.String())
}

// EmergencyCompleted announces that an emergency order is done and awaiting
// verification.
func (c *Client) EmergencyCompleted(order *Models.WorkOrder) {
	var message strings.Builder
	message.WriteString(":white_check_mark: *Emergency work order completed*\n")
	message.WriteString(fmt.Sprintf("*%s* %s\n", order.WorkOrderNumber, order.Title))
	message.WriteString(fmt.Sprintf("Total cost: %.2f\n", order.TotalCost))
	c.post(message.String())
}

func (c *Client) post(text string) {
	if _, _, err := c.api.PostMessage(c.channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("Error posting to Slack: %v", err)
	}
}

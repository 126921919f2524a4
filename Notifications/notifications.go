package Notifications

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/Slack"
	"github.com/OmarEhab007/cafm-backend-sub004/email"
)

// Hub fans a lifecycle event out to every configured channel: the in-app
// inbox row is always written, push goes to the recipient's devices, email
// goes out when SMTP is configured, and emergency orders additionally ping
// the Slack alert channel. Delivery runs off the request path and failures
// are logged, never returned.
type Hub struct {
	DB    *gorm.DB
	Email Models.EmailConfig
	Slack *Slack.Client
}

func NewHub(db *gorm.DB) *Hub {
	return &Hub{
		DB:    db,
		Email: Models.EmailConfigFromEnv(),
		Slack: Slack.NewFromEnv(),
	}
}

func (h *Hub) WorkOrderAssigned(order *Models.WorkOrder, technicianID uint) {
	go h.fanout(order, technicianID, Models.NotificationAssignment,
		"New work order assigned",
		fmt.Sprintf("%s: %s", order.WorkOrderNumber, order.Title))
}

func (h *Hub) WorkOrderCompleted(order *Models.WorkOrder) {
	go h.fanout(order, order.CreatedByID, Models.NotificationCompletion,
		"Work order completed",
		fmt.Sprintf("%s (%s) was marked completed", order.WorkOrderNumber, order.Title))
}

func (h *Hub) WorkOrderVerified(order *Models.WorkOrder) {
	if order.TechnicianID == nil {
		return
	}
	go h.fanout(order, *order.TechnicianID, Models.NotificationVerified,
		"Work order verified",
		fmt.Sprintf("%s (%s) passed verification", order.WorkOrderNumber, order.Title))
}

func (h *Hub) fanout(order *Models.WorkOrder, userID uint, kind, title, body string) {
	data := map[string]string{
		"type":              kind,
		"work_order_id":     strconv.Itoa(int(order.ID)),
		"work_order_number": order.WorkOrderNumber,
	}
	payload, _ := json.Marshal(data)

	notification := Models.Notification{
		CompanyID: order.CompanyID,
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Data:      datatypes.JSON(payload),
	}
	if err := h.DB.Create(&notification).Error; err != nil {
		log.Printf("Error storing notification for user %d: %v", userID, err)
	}

	SendPush(h.DB, userID, title, body, data)

	var user Models.User
	userErr := h.DB.First(&user, userID).Error

	if h.Email.Enabled() && userErr == nil && user.Email != "" {
		if err := email.Send(h.Email, user.Email, title, body); err != nil {
			log.Printf("Error emailing %s: %v", user.Email, err)
		}
	}

	if h.Slack != nil && order.Priority == Models.PriorityEmergency {
		switch kind {
		case Models.NotificationAssignment:
			h.Slack.EmergencyAssigned(order, user.Name)
		case Models.NotificationCompletion:
			h.Slack.EmergencyCompleted(order)
		}
	}
}

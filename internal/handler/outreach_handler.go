package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/outreach-pipeline/internal/service"
)

type OutreachService interface {
	Send(ctx context.Context, leadID string) (*service.Outcome, error)
	FollowUp(ctx context.Context, leadID string) (*service.Outcome, error)
	Track(ctx context.Context, leadID string, action string) (*service.Outcome, error)
}

type OutreachHandler struct {
	service OutreachService
}

func NewOutreachHandler(service OutreachService) (*OutreachHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("outreach service is required")
	}
	return &OutreachHandler{service: service}, nil
}

func RegisterOutreachRoutes(router fiber.Router, service OutreachService) error {
	h, err := NewOutreachHandler(service)
	if err != nil {
		return err
	}

	outreach := router.Group("/api/outreach")
	outreach.Post("/send/:lead_id", h.SendOutreach)
	outreach.Post("/track/:lead_id/:action", h.TrackEngagement)
	outreach.Post("/followup/:lead_id", h.SendFollowUp)

	return nil
}

type outreachResponse struct {
	Message  string     `json:"message"`
	LeadID   string     `json:"lead_id"`
	Status   string     `json:"status"`
	Applied  bool       `json:"applied"`
	To       string     `json:"to,omitempty"`
	Subject  string     `json:"subject,omitempty"`
	SentDate *time.Time `json:"sent_date,omitempty"`
}

type trackResponse struct {
	Message   string `json:"message"`
	LeadID    string `json:"lead_id"`
	NewStatus string `json:"new_status"`
}

func (h *OutreachHandler) SendOutreach(c *fiber.Ctx) error {
	leadID, err := pathParam(c, "lead_id")
	if err != nil {
		return err
	}

	outcome, err := h.service.Send(c.UserContext(), leadID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOutreachResponse(outcome))
}

func (h *OutreachHandler) SendFollowUp(c *fiber.Ctx) error {
	leadID, err := pathParam(c, "lead_id")
	if err != nil {
		return err
	}

	outcome, err := h.service.FollowUp(c.UserContext(), leadID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOutreachResponse(outcome))
}

func (h *OutreachHandler) TrackEngagement(c *fiber.Ctx) error {
	leadID, err := pathParam(c, "lead_id")
	if err != nil {
		return err
	}
	action, err := pathParam(c, "action")
	if err != nil {
		return err
	}

	outcome, err := h.service.Track(c.UserContext(), leadID, action)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(trackResponse{
		Message:   outcome.Message,
		LeadID:    outcome.LeadID,
		NewStatus: outcome.Status.String(),
	})
}

func toOutreachResponse(o *service.Outcome) outreachResponse {
	if o == nil {
		return outreachResponse{}
	}

	resp := outreachResponse{
		Message: o.Message,
		LeadID:  o.LeadID,
		Status:  o.Status.String(),
		Applied: o.Applied,
	}
	if o.Applied {
		resp.To = o.To
		resp.Subject = o.Subject
		resp.SentDate = o.SentDate
	}
	return resp
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"github.com/kursadbilgin/outreach-pipeline/internal/service"
)

type LeadService interface {
	Ingest(ctx context.Context, candidates []service.LeadCandidate) *service.IngestResult
	List(ctx context.Context) ([]domain.Lead, error)
	Get(ctx context.Context, id string) (*domain.Lead, error)
}

type LeadHandler struct {
	service LeadService
}

func NewLeadHandler(service LeadService) (*LeadHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("lead service is required")
	}
	return &LeadHandler{service: service}, nil
}

func RegisterLeadRoutes(router fiber.Router, service LeadService) error {
	h, err := NewLeadHandler(service)
	if err != nil {
		return err
	}

	leads := router.Group("/api/leads")
	leads.Post("/ingest", h.IngestLeads)
	leads.Get("/", h.ListLeads)
	leads.Get("/:id", h.GetLead)

	return nil
}

// flexString accepts a JSON string or number, so numeric lead ids ingest as
// their decimal text.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = ""
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = flexString(num.String())
		return nil
	}

	return fmt.Errorf("expected string, got %s", data)
}

type leadRequest struct {
	ID              flexString `json:"id"`
	CompanyName     flexString `json:"company_name"`
	Website         flexString `json:"website"`
	ContactName     flexString `json:"contact_name"`
	Email           flexString `json:"email"`
	LinkedInProfile flexString `json:"linkedin_profile"`
	Industry        flexString `json:"industry"`
	Role            flexString `json:"role"`
	CompanySize     flexString `json:"company_size"`
	Location        flexString `json:"location"`
}

func (r leadRequest) toDomain() domain.Lead {
	return domain.Lead{
		ID:              string(r.ID),
		CompanyName:     string(r.CompanyName),
		Website:         string(r.Website),
		ContactName:     string(r.ContactName),
		Email:           string(r.Email),
		LinkedInProfile: string(r.LinkedInProfile),
		Industry:        string(r.Industry),
		Role:            string(r.Role),
		CompanySize:     string(r.CompanySize),
		Location:        string(r.Location),
		Status:          domain.StatusPending,
	}
}

type ingestResponse struct {
	Message  string   `json:"message"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

type leadResponse struct {
	ID              string     `json:"id"`
	CompanyName     string     `json:"company_name"`
	Website         string     `json:"website"`
	ContactName     string     `json:"contact_name"`
	Email           string     `json:"email"`
	LinkedInProfile string     `json:"linkedin_profile"`
	Industry        string     `json:"industry"`
	Role            string     `json:"role"`
	CompanySize     string     `json:"company_size"`
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	SentDate        *time.Time `json:"sent_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (h *LeadHandler) IngestLeads(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || body[0] != '[' {
		return fiber.NewError(fiber.StatusBadRequest, "Expected a JSON array of lead objects")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected a JSON array of lead objects")
	}

	candidates := make([]service.LeadCandidate, 0, len(items))
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			candidates = append(candidates, service.LeadCandidate{DecodeErr: fmt.Errorf("expected a JSON object")})
			continue
		}

		var req leadRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			candidates = append(candidates, service.LeadCandidate{DecodeErr: err})
			continue
		}
		candidates = append(candidates, service.LeadCandidate{Lead: req.toDomain()})
	}

	result := h.service.Ingest(c.UserContext(), candidates)

	return c.Status(fiber.StatusOK).JSON(ingestResponse{
		Message:  "Lead ingestion complete",
		Inserted: result.Inserted,
		Skipped:  result.Skipped,
		Errors:   result.Errors,
	})
}

func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	leads, err := h.service.List(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toLeadResponses(leads))
}

func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	id, err := pathParam(c, "id")
	if err != nil {
		return err
	}

	lead, err := h.service.Get(c.UserContext(), strings.TrimSpace(id))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toLeadResponse(lead))
}

func toLeadResponses(leads []domain.Lead) []leadResponse {
	responses := make([]leadResponse, 0, len(leads))
	for _, lead := range leads {
		l := lead
		responses = append(responses, toLeadResponse(&l))
	}
	return responses
}

func toLeadResponse(l *domain.Lead) leadResponse {
	if l == nil {
		return leadResponse{}
	}

	return leadResponse{
		ID:              l.ID,
		CompanyName:     l.CompanyName,
		Website:         l.Website,
		ContactName:     l.ContactName,
		Email:           l.Email,
		LinkedInProfile: l.LinkedInProfile,
		Industry:        l.Industry,
		Role:            l.Role,
		CompanySize:     l.CompanySize,
		Location:        l.Location,
		Status:          l.Status.String(),
		SentDate:        l.SentDate,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

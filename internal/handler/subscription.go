package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// SubscriptionHandler covers the plan catalog, member subscriptions
// (including freezes) and payments.
type SubscriptionHandler struct {
	Plans    *repository.PlanRepo
	Subs     *repository.SubscriptionRepo
	Payments *repository.PaymentRepo
	Members  *repository.MemberRepo
}

func NewSubscriptionHandler(p *repository.PlanRepo, s *repository.SubscriptionRepo, pay *repository.PaymentRepo, m *repository.MemberRepo) *SubscriptionHandler {
	if p == nil || s == nil || pay == nil || m == nil {
		panic("nil repository passed to NewSubscriptionHandler")
	}
	return &SubscriptionHandler{Plans: p, Subs: s, Payments: pay, Members: m}
}

// ----- plans -----

type planReq struct {
	Name       string `json:"name"`
	PlanType   string `json:"plan_type"`
	PriceCents int64  `json:"price_cents"`
	ValidDays  int    `json:"valid_days"`
	MaxEntries *int   `json:"max_entries"`
}

// CreatePlan adds a plan to the catalog (admin only).
func (h *SubscriptionHandler) CreatePlan(c echo.Context) error {
	var req planReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	planType := strings.ToUpper(strings.TrimSpace(req.PlanType))
	switch planType {
	case model.PlanMonthly, model.PlanYearly, model.PlanWeekly, model.PlanDaily, model.PlanVIP:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown plan_type"})
	}
	if req.Name == "" || req.PriceCents < 0 || req.ValidDays <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, price_cents and valid_days required"})
	}
	if req.MaxEntries != nil && *req.MaxEntries <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_entries must be positive or absent"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p := &model.Plan{
		Name:       req.Name,
		PlanType:   planType,
		PriceCents: req.PriceCents,
		ValidDays:  req.ValidDays,
		MaxEntries: req.MaxEntries,
	}
	if err := h.Plans.Create(ctx, p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPlans returns the catalog; sits behind the response cache.
func (h *SubscriptionHandler) ListPlans(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	plans, err := h.Plans.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": plans})
}

// ----- subscriptions -----

type subscribeReq struct {
	MemberID uint64     `json:"member_id"`
	PlanID   uint64     `json:"plan_id"`
	StartsAt *time.Time `json:"starts_at"`
}

// Subscribe opens a subscription for a member on a plan and books the
// plan price as a PENDING payment.  The member stays in debt — and is
// denied at the door — until the payment is marked paid.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	var req subscribeReq
	if err := c.Bind(&req); err != nil || req.MemberID == 0 || req.PlanID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id and plan_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Members.GetByID(ctx, req.MemberID); err != nil {
		return fail(c, err)
	}
	plan, err := h.Plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return fail(c, err)
	}

	starts := time.Now().UTC()
	if req.StartsAt != nil {
		starts = req.StartsAt.UTC()
	}
	sub := &model.Subscription{
		MemberID:         req.MemberID,
		PlanID:           plan.ID,
		Status:           model.SubscriptionActive,
		StartsAt:         starts,
		ExpiresAt:        starts.Add(time.Duration(plan.ValidDays) * 24 * time.Hour),
		RemainingEntries: plan.MaxEntries,
	}
	if err := h.Subs.Create(ctx, sub); err != nil {
		return fail(c, err)
	}

	ref := uuid.NewString()
	payment := &model.Payment{
		SubscriptionID: sub.ID,
		AmountCents:    plan.PriceCents,
		Status:         model.PaymentPending,
		Reference:      &ref,
	}
	if err := h.Payments.Create(ctx, payment); err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"subscription": sub, "payment": payment})
}

// ListByMember returns a member's subscription history.
func (h *SubscriptionHandler) ListByMember(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	subs, err := h.Subs.ListByMember(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": id, "subscriptions": subs})
}

type freezeReq struct {
	Until time.Time `json:"until"`
}

// Freeze pauses a subscription until the given instant; frozen
// members are denied at the door until the freeze lapses.
func (h *SubscriptionHandler) Freeze(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscription id"})
	}
	var req freezeReq
	if err := c.Bind(&req); err != nil || !req.Until.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "until must be in the future"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Subs.Freeze(ctx, id, req.Until.UTC()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "frozen_until": req.Until.UTC()})
}

// ----- payments -----

// MarkPaid settles a PENDING payment, clearing the member's debt for
// that obligation.
func (h *SubscriptionHandler) MarkPaid(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Payments.MarkPaid(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.PaymentPaid})
}

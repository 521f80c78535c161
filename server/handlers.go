package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"estatenexus/models"
	"estatenexus/search"
	"estatenexus/services"
	"estatenexus/storage"
)

type handlers struct {
	listings  *services.ListingService
	directory *services.DirectoryService
	companies *services.CompanyService
	importer  *services.ImporterService
	authAPI   *storage.SupabaseAuth
	cache     *storage.Cache
}

func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, services.ErrDuplicate):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func pageParams(c echo.Context) (pageSize, pageIndex int) {
	pageSize = 9
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v >= 0 {
		pageIndex = v
	}
	return pageSize, pageIndex
}

// =============================================================================
// Properties
// =============================================================================

func (h *handlers) searchProperties(c echo.Context) error {
	filters := search.ParsePropertyFilters(c.QueryParams())
	sortKey := search.SortKey(c.QueryParam("sort"))
	pageSize, pageIndex := pageParams(c)

	result, err := h.listings.Search(c.Request().Context(), filters, sortKey, pageSize, pageIndex)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) getProperty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	p, err := h.listings.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handlers) createProperty(c echo.Context) error {
	var draft models.Property
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	created, err := h.listings.Create(c.Request().Context(), Snapshot(c), &draft)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateProperty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var draft models.Property
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.listings.Update(c.Request().Context(), Snapshot(c), id, &draft)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteProperty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.listings.Delete(c.Request().Context(), Snapshot(c), id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) importProperty(c echo.Context) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	draft, err := h.importer.Import(c.Request().Context(), Snapshot(c), body.URL)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, draft)
}

// =============================================================================
// Agents
// =============================================================================

func (h *handlers) searchAgents(c echo.Context) error {
	filters := search.ParseAgentFilters(c.QueryParams())
	sortKey := search.SortKey(c.QueryParam("sort"))
	pageSize, pageIndex := pageParams(c)

	result, err := h.directory.SearchAgents(c.Request().Context(), filters, sortKey, pageSize, pageIndex)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) getAgent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	a, err := h.directory.GetAgent(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *handlers) contactAgent(c echo.Context) error {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var msg models.ContactMessage
	if err := c.Bind(&msg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	msg.AgentID = agentID
	if err := h.directory.Contact(c.Request().Context(), &msg); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

// =============================================================================
// Auth
// =============================================================================

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) signUp(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	session, err := h.authAPI.SignUp(c.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *handlers) signIn(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	session, err := h.authAPI.SignIn(c.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}
	return c.JSON(http.StatusOK, session)
}

func (h *handlers) signOut(c echo.Context) error {
	snap := Snapshot(c)
	token, ok := bearerToken(c.Request().Header.Get("Authorization"))
	if ok {
		if err := h.authAPI.SignOut(c.Request().Context(), token); err != nil {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "sign out failed"})
		}
	}
	if snap.Principal != nil {
		h.cache.Delete(c.Request().Context(), "identity:"+snap.Principal.ID.String())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) me(c echo.Context) error {
	snap := Snapshot(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"profile":    snap.Principal,
		"membership": snap.Membership,
	})
}

// =============================================================================
// Companies
// =============================================================================

func (h *handlers) registerCompany(c echo.Context) error {
	var company models.Company
	if err := c.Bind(&company); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	created, err := h.companies.Register(c.Request().Context(), Snapshot(c), &company)
	if err != nil {
		return httpError(c, err)
	}
	h.invalidateIdentity(c)
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) getCompany(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	company, err := h.companies.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *handlers) listMembers(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	members, err := h.companies.Members(c.Request().Context(), Snapshot(c), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *handlers) createInvitation(c echo.Context) error {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	inv, err := h.companies.Invite(c.Request().Context(), Snapshot(c), companyID, body.Email, models.CompanyRole(body.Role))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *handlers) listInvitations(c echo.Context) error {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	invs, err := h.companies.Invitations(c.Request().Context(), Snapshot(c), companyID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, invs)
}

func (h *handlers) revokeInvitation(c echo.Context) error {
	if err := h.companies.RevokeInvite(c.Request().Context(), Snapshot(c), c.Param("token")); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) acceptInvitation(c echo.Context) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	m, err := h.companies.Accept(c.Request().Context(), Snapshot(c), body.Token)
	if err != nil {
		return httpError(c, err)
	}
	h.invalidateIdentity(c)
	return c.JSON(http.StatusOK, m)
}

func (h *handlers) changeMemberRole(c echo.Context) error {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid member id"})
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.companies.ChangeRole(c.Request().Context(), Snapshot(c), companyID, memberID, models.CompanyRole(body.Role)); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) removeMember(c echo.Context) error {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid member id"})
	}
	if err := h.companies.Remove(c.Request().Context(), Snapshot(c), companyID, memberID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// invalidateIdentity drops the caller's cached principal after a membership
// change so the next request sees fresh roles.
func (h *handlers) invalidateIdentity(c echo.Context) {
	if s := Snapshot(c); s.Principal != nil {
		h.cache.Delete(c.Request().Context(), "identity:"+s.Principal.ID.String())
	}
}

// =============================================================================
// Dashboard
// =============================================================================

func (h *handlers) dashboardStats(c echo.Context) error {
	stats, err := h.directory.Stats(c.Request().Context(), Snapshot(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *handlers) dashboardActivity(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	events, err := h.directory.Activity(c.Request().Context(), Snapshot(c), limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the ZBase category API.
// Handlers receive their dependencies through the handler struct and speak
// JSON in both directions.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"zbase/internal/cache"
	"zbase/internal/category"
	"zbase/internal/models"
	"zbase/internal/store"
)

// maxBodyBytes caps the size of a request body.
const maxBodyBytes = 1 << 20

// Cache log defaults for the invalidation listing.
const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// ResponseCache stores encoded read responses. cache.CategoryCache
// satisfies it. Generation must change on every InvalidateAll; ok is false
// when the generation is unknown and nothing should be cached.
type ResponseCache interface {
	Generation(ctx context.Context) (gen int64, ok bool)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	InvalidateAll(ctx context.Context)
}

// InvalidationLog records cache invalidations. store.CacheLogStore
// satisfies it.
type InvalidationLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// Categories groups the category API handlers and their dependencies.
type Categories struct {
	manager  *category.Manager
	cache    ResponseCache
	cacheLog InvalidationLog
}

// NewCategories creates the category handler group. respCache and cacheLog
// may be nil, which disables response caching and invalidation logging.
func NewCategories(manager *category.Manager, respCache ResponseCache, cacheLog InvalidationLog) *Categories {
	return &Categories{
		manager:  manager,
		cache:    respCache,
		cacheLog: cacheLog,
	}
}

// createRequest is the body of POST /api/categories.
type createRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description *string    `json:"description" validate:"omitnil,max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// updateRequest is the body of PATCH /api/categories/{id}. A null
// description clears it; a null parent_id moves the category to the root.
type updateRequest struct {
	Name        *string             `json:"name" validate:"omitnil,min=1,max=200"`
	Description optional[string]    `json:"description" validate:"max=1000"`
	ParentID    optional[uuid.UUID] `json:"parent_id" validate:"-"`
}

// optional distinguishes an absent JSON field from an explicit null.
type optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON records that the field was present. null leaves Value nil.
func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// List handles GET /api/categories. Without parent_id every category is
// returned; parent_id=null lists the roots and parent_id=<uuid> lists the
// direct children of that category.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid parent_id.")
		return
	}

	key, hit := h.serveCached(w, r, cache.ListKey(filter))
	if hit {
		return
	}

	items, err := h.manager.FindAll(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, key, items)
}

// Tree handles GET /api/categories/tree.
func (h *Categories) Tree(w http.ResponseWriter, r *http.Request) {
	key, hit := h.serveCached(w, r, cache.TreeKey())
	if hit {
		return
	}

	tree, err := h.manager.Tree(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, key, tree)
}

// integrityResponse is the body of GET /api/categories/integrity.
type integrityResponse struct {
	OK      bool        `json:"ok"`
	Invalid []uuid.UUID `json:"invalid"`
}

// Integrity handles GET /api/categories/integrity. It is never cached.
func (h *Categories) Integrity(w http.ResponseWriter, r *http.Request) {
	invalid, err := h.manager.CheckIntegrity(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if invalid == nil {
		invalid = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, integrityResponse{OK: len(invalid) == 0, Invalid: invalid})
}

// Get handles GET /api/categories/{id}.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	key, hit := h.serveCached(w, r, cache.ItemKey(id))
	if hit {
		return
	}

	c, err := h.manager.FindOne(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, key, c)
}

// Create handles POST /api/categories.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := validateRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.manager.Create(r.Context(), category.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.invalidate(r.Context(), created.ID, "create")
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PATCH /api/categories/{id}. An explicit "parent_id": null
// moves the category to the root; an absent parent_id keeps its parent.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if msg := validateRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.manager.Update(r.Context(), id, models.CategoryPatch{
		Name:           req.Name,
		SetDescription: req.Description.Set,
		Description:    req.Description.Value,
		SetParent:      req.ParentID.Set,
		ParentID:       req.ParentID.Value,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.invalidate(r.Context(), id, "update")
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/categories/{id}.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.manager.Remove(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	h.invalidate(r.Context(), id, "delete")
	w.WriteHeader(http.StatusNoContent)
}

// Invalidations handles GET /api/cache-log, listing the most recent cache
// invalidations. Returns an empty list when no log is configured.
func (h *Categories) Invalidations(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLogLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500.")
			return
		}
		limit = n
	}

	entries := []store.CacheLogEntry{}
	if h.cacheLog != nil {
		recent, err := h.cacheLog.RecentEntries(r.Context(), limit)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if recent != nil {
			entries = recent
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Helpers ---

// serveCached writes a cached response body if one exists for base in the
// current cache generation. It returns the generation-scoped key to store a
// fresh body under, or "" when caching is unavailable. The generation is
// read before any data is loaded, so a body built from data that a
// concurrent mutation has since replaced lands in a stale generation.
func (h *Categories) serveCached(w http.ResponseWriter, r *http.Request, base string) (key string, hit bool) {
	if h.cache == nil {
		return "", false
	}
	gen, ok := h.cache.Generation(r.Context())
	if !ok {
		return "", false
	}
	key = cache.VersionedKey(gen, base)
	body, ok := h.cache.Get(r.Context(), key)
	if !ok {
		return key, false
	}
	w.Header().Set("X-Cache", "HIT")
	writeRawJSON(w, http.StatusOK, body)
	return key, true
}

// writeCached encodes data, stores it under key unless key is empty, and
// writes it.
func (h *Categories) writeCached(w http.ResponseWriter, r *http.Request, key string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if key != "" {
		h.cache.Set(r.Context(), key, body)
		w.Header().Set("X-Cache", "MISS")
	}
	writeRawJSON(w, http.StatusOK, body)
}

// invalidate clears cached responses after a successful mutation.
func (h *Categories) invalidate(ctx context.Context, id uuid.UUID, action string) {
	if h.cache != nil {
		h.cache.InvalidateAll(ctx)
	}
	if h.cacheLog != nil {
		h.cacheLog.Log(ctx, "category", id, action)
	}
}

// parseFilter reads the parent_id query parameter.
func parseFilter(q url.Values) (models.CategoryFilter, bool) {
	if !q.Has("parent_id") {
		return models.CategoryFilter{}, true
	}
	raw := q.Get("parent_id")
	if raw == "" || raw == "null" {
		return models.Roots(), true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return models.CategoryFilter{}, false
	}
	return models.ChildrenOf(id), true
}

// parseID reads the {id} URL parameter, writing a 400 on failure.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category ID.")
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return false
	}
	return true
}

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/packlab/packager/internal/domain/inventory"
	"github.com/packlab/packager/internal/domain/trips"
	"github.com/packlab/packager/internal/domain/users"
	"github.com/packlab/packager/internal/export"
	"github.com/packlab/packager/internal/infra/db"
)

// API exposes the domain operations as a JSON surface. Authentication is
// handled upstream; the owning user arrives in the X-User-ID header.
type API struct {
	Log       *slog.Logger
	Users     *users.Repo
	Inventory *inventory.Repo
	Trips     *trips.Repo
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", a.createUser)
	mux.HandleFunc("GET /users", a.listUsers)
	mux.HandleFunc("GET /users/{id}", a.getUser)
	mux.HandleFunc("DELETE /users/{id}", a.deleteUser)

	mux.HandleFunc("GET /inventory", a.getInventory)
	mux.HandleFunc("GET /inventory/export", a.exportInventory)
	mux.HandleFunc("POST /categories", a.createCategory)
	mux.HandleFunc("PUT /categories/{id}", a.updateCategory)
	mux.HandleFunc("DELETE /categories/{id}", a.deleteCategory)
	mux.HandleFunc("POST /items", a.createItem)
	mux.HandleFunc("PUT /items/{id}", a.updateItem)
	mux.HandleFunc("DELETE /items/{id}", a.deleteItem)

	mux.HandleFunc("POST /trips", a.createTrip)
	mux.HandleFunc("GET /trips", a.listTrips)
	mux.HandleFunc("GET /trips/{id}", a.getTrip)
	mux.HandleFunc("PUT /trips/{id}", a.updateTrip)
	mux.HandleFunc("DELETE /trips/{id}", a.deleteTrip)
	mux.HandleFunc("POST /trips/{id}/advance", a.advanceTrip)
	mux.HandleFunc("POST /trips/{id}/revert", a.revertTrip)
	mux.HandleFunc("PUT /trips/{id}/items/{item}", a.setTripItemFlag)
	mux.HandleFunc("GET /trips/{id}/export", a.exportTrip)

	mux.HandleFunc("POST /types", a.createType)
	mux.HandleFunc("GET /types", a.listTypes)
	mux.HandleFunc("DELETE /types/{id}", a.deleteType)
	mux.HandleFunc("PUT /trips/{id}/types/{type}", a.attachType)
	mux.HandleFunc("DELETE /trips/{id}/types/{type}", a.detachType)
}

/* helpers */

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
	requests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
}

// writeErr maps the repo error kinds onto HTTP statuses: not found -> 404,
// duplicate and validation failures -> 400, everything else -> 500.
func (a *API) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, db.ErrDuplicate), errors.Is(err, trips.ErrNotPicked):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	a.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

func (a *API) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	a.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": msg})
}

func (a *API) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		a.badRequest(w, r, "missing or malformed X-User-ID header")
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		a.badRequest(w, r, "malformed id")
		return uuid.Nil, false
	}
	return id, true
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

/* users */

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if in.Name == "" {
		a.badRequest(w, r, "empty form element: name")
		return
	}
	u, err := a.Users.Create(r.Context(), in.Name)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			a.badRequest(w, r, "user already exists")
			return
		}
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, u)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := a.Users.List(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, us)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := a.Users.GetByID(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, u)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Users.Delete(r.Context(), id); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

/* inventory */

type categoryView struct {
	inventory.Category
	Items       []inventory.Item `json:"items"`
	TotalWeight int64            `json:"total_weight"`
}

func (a *API) getInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	inv, err := a.Inventory.Load(r.Context(), userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	cats := make([]categoryView, 0, len(inv.Categories))
	for _, c := range inv.Categories {
		cats = append(cats, categoryView{Category: c.Category, Items: c.Items, TotalWeight: c.TotalWeight()})
	}
	a.writeJSON(w, r, http.StatusOK, map[string]any{
		"categories":              cats,
		"total_weight":            inv.TotalWeight(),
		"biggest_category_weight": inventory.BiggestCategoryWeight(inv.Categories),
	})
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if in.Name == "" {
		a.badRequest(w, r, "empty form element: name")
		return
	}
	c, err := a.Inventory.CreateCategory(r.Context(), userID, in.Name, in.Description)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, c)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if in.Name == "" {
		a.badRequest(w, r, "empty form element: name")
		return
	}
	c, err := a.Inventory.UpdateCategory(r.Context(), id, userID, in.Name, in.Description)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, c)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Inventory.DeleteCategory(r.Context(), id, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

type itemInput struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Weight      int64     `json:"weight"`
}

func (in itemInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("empty form element: name")
	}
	if in.CategoryID == uuid.Nil {
		return fmt.Errorf("empty form element: category_id")
	}
	if in.Weight < 0 {
		return fmt.Errorf("weight must be non-negative")
	}
	return nil
}

func (a *API) createItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	var in itemInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if err := in.validate(); err != nil {
		a.badRequest(w, r, err.Error())
		return
	}
	it, err := a.Inventory.CreateItem(r.Context(), userID, in.CategoryID, in.Name, in.Description, in.Weight)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, it)
}

func (a *API) updateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in itemInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if err := in.validate(); err != nil {
		a.badRequest(w, r, err.Error())
		return
	}
	it, err := a.Inventory.UpdateItem(r.Context(), id, userID, in.CategoryID, in.Name, in.Description, in.Weight)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, it)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Inventory.DeleteItem(r.Context(), id, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

func (a *API) exportInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	inv, err := a.Inventory.Load(r.Context(), userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	f, err := export.InventoryWorkbook(inv)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()
	a.sendWorkbook(w, r, f, fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102_150405")))
}

/* trips */

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func (a *API) createTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	var in struct {
		Name      string `json:"name"`
		DateStart string `json:"date_start"`
		DateEnd   string `json:"date_end"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if in.Name == "" {
		a.badRequest(w, r, "empty form element: name")
		return
	}
	start, err := parseDate(in.DateStart)
	if err != nil {
		a.badRequest(w, r, "malformed date_start")
		return
	}
	end, err := parseDate(in.DateEnd)
	if err != nil {
		a.badRequest(w, r, "malformed date_end")
		return
	}
	t, err := a.Trips.Create(r.Context(), userID, in.Name, start, end)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, t)
}

func (a *API) listTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	ts, err := a.Trips.ListByUser(r.Context(), userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	type tripView struct {
		trips.Trip
		PickedWeight int64 `json:"picked_weight"`
	}
	out := make([]tripView, 0, len(ts))
	for _, t := range ts {
		w2, err := a.Trips.FindTotalPickedWeight(r.Context(), t.ID)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		out = append(out, tripView{Trip: t, PickedWeight: w2})
	}
	a.writeJSON(w, r, http.StatusOK, out)
}

// getTrip syncs the trip item set against the inventory before rendering, so
// the returned packing list always covers the user's current gear.
func (a *API) getTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := a.Trips.GetByID(r.Context(), id, userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	inserted, err := trips.SyncWithInventory(r.Context(), a.Trips, t)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	syncedItems.Add(float64(inserted))

	cats, err := a.Trips.LoadCategories(r.Context(), t.ID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	types, err := a.Trips.ListTripTypes(r.Context(), t.ID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, map[string]any{
		"trip":          t,
		"types":         types,
		"categories":    cats,
		"picked_weight": trips.TotalPickedWeight(cats),
	})
}

func (a *API) updateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Name      string  `json:"name"`
		DateStart string  `json:"date_start"`
		DateEnd   string  `json:"date_end"`
		Location  *string `json:"location"`
		TempMin   *int    `json:"temp_min"`
		TempMax   *int    `json:"temp_max"`
		Comment   *string `json:"comment"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if in.Name == "" {
		a.badRequest(w, r, "empty form element: name")
		return
	}
	start, err := parseDate(in.DateStart)
	if err != nil {
		a.badRequest(w, r, "malformed date_start")
		return
	}
	end, err := parseDate(in.DateEnd)
	if err != nil {
		a.badRequest(w, r, "malformed date_end")
		return
	}
	t := &trips.Trip{
		ID: id, UserID: userID, Name: in.Name,
		DateStart: start, DateEnd: end,
		Location: in.Location, TempMin: in.TempMin, TempMax: in.TempMax, Comment: in.Comment,
	}
	updated, err := a.Trips.Update(r.Context(), t)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, updated)
}

func (a *API) deleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Trips.Delete(r.Context(), id, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

func (a *API) advanceTrip(w http.ResponseWriter, r *http.Request) {
	a.shiftTrip(w, r, trips.State.Next)
}

func (a *API) revertTrip(w http.ResponseWriter, r *http.Request) {
	a.shiftTrip(w, r, trips.State.Prev)
}

func (a *API) shiftTrip(w http.ResponseWriter, r *http.Request, step func(trips.State) (trips.State, bool)) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := a.Trips.GetByID(r.Context(), id, userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	next, ok := step(t.State)
	if !ok {
		a.badRequest(w, r, fmt.Sprintf("no transition from state %q", t.State))
		return
	}
	updated, err := a.Trips.SetState(r.Context(), id, userID, next)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, updated)
}

func (a *API) setTripItemFlag(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	tripID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := a.pathID(w, r, "item")
	if !ok {
		return
	}
	var in struct {
		Key   string `json:"key"`
		Value bool   `json:"value"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	key, err := trips.ParseFlagKey(in.Key)
	if err != nil {
		a.badRequest(w, r, err.Error())
		return
	}
	// ownership check before touching the join table
	if _, err := a.Trips.GetByID(r.Context(), tripID, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	if err := a.Trips.SetItemFlag(r.Context(), tripID, itemID, key, in.Value); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

func (a *API) exportTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := a.Trips.GetByID(r.Context(), id, userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	cats, err := a.Trips.LoadCategories(r.Context(), t.ID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	f, err := export.PackingListWorkbook(t, cats)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()
	a.sendWorkbook(w, r, f, fmt.Sprintf("trip_%s_%s.xlsx", t.Name, time.Now().Format("20060102_150405")))
}

func (a *API) sendWorkbook(w http.ResponseWriter, r *http.Request, f *excelize.File, name string) {
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	requests.WithLabelValues(r.Method, strconv.Itoa(http.StatusOK)).Inc()
}

/* trip types */

func (a *API) createType(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, r, "malformed body")
		return
	}
	if in.Name == "" {
		a.badRequest(w, r, "empty form element: name")
		return
	}
	tt, err := a.Trips.CreateType(r.Context(), userID, in.Name)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, tt)
}

func (a *API) listTypes(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	tts, err := a.Trips.ListTypes(r.Context(), userID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, tts)
}

func (a *API) deleteType(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Trips.DeleteType(r.Context(), id, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

func (a *API) attachType(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	tripID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	typeID, ok := a.pathID(w, r, "type")
	if !ok {
		return
	}
	if _, err := a.Trips.GetByID(r.Context(), tripID, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	if err := a.Trips.AttachType(r.Context(), tripID, typeID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

func (a *API) detachType(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	tripID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	typeID, ok := a.pathID(w, r, "type")
	if !ok {
		return
	}
	if _, err := a.Trips.GetByID(r.Context(), tripID, userID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	if err := a.Trips.DetachType(r.Context(), tripID, typeID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusNoContent, nil)
}

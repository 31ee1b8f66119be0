package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"kidsfolio/internal/content"
	"kidsfolio/internal/database"
	"kidsfolio/internal/portfolio"
)

// newAdminRouter 直接挂载后台处理器，鉴权中间件另有测试。
func newAdminRouter(t *testing.T) (*gin.Engine, *testServer, *fakePrefixDeleter) {
	t.Helper()
	s := newTestServer(t)
	deleter := &fakePrefixDeleter{}
	h := NewAdminPortfolioHandler(s.portfolios, deleter)
	contentHandler := NewContentHandler(content.NewService(database.NewContentRepository(s.db)))
	bookings := NewBookingHandler(database.NewBookingRepository(s.db), nil, 0)

	r := gin.New()
	r.POST("/portfolios", h.Create)
	r.PUT("/portfolios/:id", h.Update)
	r.DELETE("/portfolios/:id", h.Delete)
	r.POST("/content/:category", contentHandler.Create)
	r.GET("/content/:category", contentHandler.ListAll)
	r.GET("/bookings", bookings.List)
	r.PATCH("/bookings/:id", bookings.UpdateStatus)
	return r, s, deleter
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminPortfolio_CreateNormalizesBlocks(t *testing.T) {
	r, _, _ := newAdminRouter(t)

	body := `{"slug":"ben-li","student_name":"Ben","theme":"creative_color","skill_layout":"radar",
	  "content_blocks":[{"type":"text","data":{"content":"hi"}},{"id":"keep","type":"video","data":{}}],
	  "skills":[{"name":"Lego","value":90,"category":"Build"}]}`
	rec := serve(r, jsonRequest(http.MethodPost, "/portfolios", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp portfolioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	blocks, err := portfolio.DecodeBlocks(resp.ContentBlocks)
	if err != nil || len(blocks) != 2 {
		t.Fatalf("blocks = %#v, %v", blocks, err)
	}
	if blocks[0].BlockID() == "" || blocks[1].BlockID() != "keep" {
		t.Fatalf("ids not normalized: %q %q", blocks[0].BlockID(), blocks[1].BlockID())
	}
	if string(resp.ThemeConfig) != `{"skill_layout":"radar","theme":"creative_color"}` {
		t.Fatalf("unexpected theme config %s", resp.ThemeConfig)
	}

	rec = serve(r, jsonRequest(http.MethodPost, "/portfolios", `{"slug":"ben-li","student_name":"Other"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate slug, got %d", rec.Code)
	}
}

func TestAdminPortfolio_CreateValidation(t *testing.T) {
	r, _, _ := newAdminRouter(t)

	for name, body := range map[string]string{
		"bad slug":      `{"slug":"Ben Li","student_name":"Ben"}`,
		"missing name":  `{"slug":"ben-li"}`,
		"unknown theme": `{"slug":"ben-li","student_name":"Ben","theme":"neon"}`,
		"blocks object": `{"slug":"ben-li","student_name":"Ben","content_blocks":{"a":1}}`,
		"skills object": `{"slug":"ben-li","student_name":"Ben","skills":{"a":1}}`,
	} {
		if rec := serve(r, jsonRequest(http.MethodPost, "/portfolios", body)); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestAdminPortfolio_UpdateAndDelete(t *testing.T) {
	r, s, deleter := newAdminRouter(t)
	row := seedPortfolio(t, s, "amy-chen", "")
	seedPortfolio(t, s, "taken", "")
	path := "/portfolios/" + strconv.FormatUint(uint64(row.ID), 10)

	rec := serve(r, jsonRequest(http.MethodPut, path, `{"slug":"taken","student_name":"Amy"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 renaming onto taken slug, got %d", rec.Code)
	}

	rec = serve(r, jsonRequest(http.MethodPut, path, `{"slug":"amy-chen","student_name":"Amy C.","access_password":"new"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp portfolioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StudentName != "Amy C." || resp.AccessPassword != "new" {
		t.Fatalf("update not applied: %#v", resp)
	}

	rec = serve(r, httptest.NewRequest(http.MethodDelete, path, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(deleter.prefixes) != 1 || deleter.prefixes[0] != "snapshots/amy-chen/" {
		t.Fatalf("snapshots not cleaned: %#v", deleter.prefixes)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodDelete, path, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := serve(r, jsonRequest(http.MethodPost, "/portfolios", `{"slug":"amy-chen","student_name":"Amy"}`)); rec.Code != http.StatusCreated {
		t.Fatalf("expected deleted slug to be reusable, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := serve(r, httptest.NewRequest(http.MethodDelete, "/portfolios/abc", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestContent_PublicListOnlyPublished(t *testing.T) {
	r, s, _ := newAdminRouter(t)

	for _, body := range []string{
		`{"title":"Scratch Basics","tags":["coding"],"published":true,"sort_order":2}`,
		`{"title":"Robotics","tags":["Robotics"],"published":true,"sort_order":1}`,
		`{"title":"Draft Course","published":false}`,
	} {
		if rec := serve(r, jsonRequest(http.MethodPost, "/content/curriculum", body)); rec.Code != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/content/curriculum", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page content.Page[content.Entry]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || page.Items[0].Title != "Robotics" {
		t.Fatalf("unexpected page %#v", page)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/v1/content/curriculum?tag=robotics", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("tag filter failed: %#v", page)
	}

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/content/curriculum", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("admin list should include drafts: %#v", page)
	}

	if rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/content/unknown", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", rec.Code)
	}
	if rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/content/curriculum?page_size=500", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized page, got %d", rec.Code)
	}
}

func TestBookings_SubmitAndFollowUp(t *testing.T) {
	r, s, _ := newAdminRouter(t)

	rec := s.do(t, jsonRequest(http.MethodPost, "/v1/bookings",
		`{"parent_name":"Li Wei","phone":"+86 138 0000 0000","email":"li@example.com","child_age":8}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != database.BookingPending {
		t.Fatalf("unexpected status %q", created.Status)
	}

	for name, body := range map[string]string{
		"missing phone": `{"parent_name":"Li"}`,
		"bad email":     `{"parent_name":"Li","phone":"13800000000","email":"nope"}`,
		"bad age":       `{"parent_name":"Li","phone":"13800000000","child_age":40}`,
	} {
		if rec := s.do(t, jsonRequest(http.MethodPost, "/v1/bookings", body)); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}

	path := "/bookings/" + strconv.FormatUint(uint64(created.ID), 10)
	if rec := serve(r, jsonRequest(http.MethodPatch, path, `{"status":"archived"}`)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
	if rec := serve(r, jsonRequest(http.MethodPatch, path, `{"status":"contacted"}`)); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := serve(r, jsonRequest(http.MethodPatch, "/bookings/999", `{"status":"closed"}`)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/bookings?status=contacted", nil))
	var list struct {
		Items []bookingResponse `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ParentName != "Li Wei" {
		t.Fatalf("unexpected bookings %#v", list.Items)
	}
}

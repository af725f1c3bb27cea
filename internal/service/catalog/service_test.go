package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sprouting-academy/internal/domain"
)

func TestClientDecodesNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/courses/42" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"title":"Go Basics","price":1500,"availableDates":["2026-11-01"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	doc, err := c.Course(context.Background(), "42")
	if err != nil {
		t.Fatalf("course: %v", err)
	}
	if doc.ID != "42" || doc.Title != "Go Basics" || doc.Price != 1500 {
		t.Fatalf("unexpected doc %+v", doc)
	}

	if _, err := c.Ebook(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type stubSource struct {
	courseCalls int
	course      *CourseDoc
	ebook       *EbookDoc
	bootcamp    *BootcampDoc
}

func (s *stubSource) Course(_ context.Context, _ string) (*CourseDoc, error) {
	s.courseCalls++
	if s.course == nil {
		return nil, domain.ErrNotFound
	}
	return s.course, nil
}

func (s *stubSource) Ebook(_ context.Context, _ string) (*EbookDoc, error) {
	if s.ebook == nil {
		return nil, domain.ErrNotFound
	}
	return s.ebook, nil
}

func (s *stubSource) Bootcamp(_ context.Context, _ string) (*BootcampDoc, error) {
	if s.bootcamp == nil {
		return nil, domain.ErrNotFound
	}
	return s.bootcamp, nil
}

func TestCartItemForCourseDate(t *testing.T) {
	src := &stubSource{course: &CourseDoc{Title: "Go", Price: 1000, AvailableDates: []string{"2026-11-01", "2026-12-01"}}}
	svc := New(src, time.Minute)
	ctx := context.Background()

	item, err := svc.CartItemFor(ctx, domain.ItemTypeCourse, "c1", "2026-12-01")
	if err != nil {
		t.Fatalf("cart item: %v", err)
	}
	if item.Course.Date != "2026-12-01" || item.ItemID != "c1" || item.Price != 1000 {
		t.Fatalf("unexpected item %+v", item)
	}
	if err := item.Validate(); err != nil {
		t.Fatalf("item should be valid: %v", err)
	}

	item, err = svc.CartItemFor(ctx, domain.ItemTypeCourse, "c1", "2030-01-01")
	if err != nil {
		t.Fatalf("cart item: %v", err)
	}
	if item.Course.Date != domain.DateUnselected {
		t.Fatalf("expected unselected date, got %q", item.Course.Date)
	}
	if src.courseCalls != 1 {
		t.Fatalf("expected cached doc, got %d calls", src.courseCalls)
	}
}

func TestCartItemForBootcampAndEbook(t *testing.T) {
	pages := 88
	src := &stubSource{
		ebook:    &EbookDoc{Title: "Book", Price: 300, PageCount: &pages},
		bootcamp: &BootcampDoc{Title: "Camp", Price: 9000, Duration: "12 weeks"},
	}
	svc := New(src, time.Minute)

	eb, err := svc.CartItemFor(context.Background(), domain.ItemTypeEbook, "e1", "")
	if err != nil || eb.Ebook == nil || *eb.Ebook.PageCount != 88 {
		t.Fatalf("unexpected ebook %+v err %v", eb, err)
	}
	bc, err := svc.CartItemFor(context.Background(), domain.ItemTypeBootcamp, "b1", "")
	if err != nil || bc.Bootcamp == nil || bc.Bootcamp.Features == nil {
		t.Fatalf("unexpected bootcamp %+v err %v", bc, err)
	}
}

func TestCartItemForRequiresID(t *testing.T) {
	svc := New(&stubSource{}, time.Minute)
	_, err := svc.CartItemFor(context.Background(), domain.ItemTypeCourse, "  ", "")
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// Package catalog turns read-only CMS documents into cart lines.
package catalog

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"sprouting-academy/internal/domain"
)

const defaultCacheSize = 512

type source interface {
	Course(ctx context.Context, id string) (*CourseDoc, error)
	Ebook(ctx context.Context, id string) (*EbookDoc, error)
	Bootcamp(ctx context.Context, id string) (*BootcampDoc, error)
}

type Service struct {
	src   source
	cache *expirable.LRU[string, domain.CartItem]
}

func New(src source, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		src:   src,
		cache: expirable.NewLRU[string, domain.CartItem](defaultCacheSize, nil, ttl),
	}
}

// CartItemFor builds the cart line for a product. A course date that is not
// one of the course's available dates is recorded as unselected.
func (s *Service) CartItemFor(ctx context.Context, itemType domain.ItemType, itemID, date string) (domain.CartItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.CartItem{}, &domain.ValidationError{Field: "itemId", Message: "item id required"}
	}
	item, err := s.lookup(ctx, itemType, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if item.Course != nil {
		course := *item.Course
		course.AvailableDates = slices.Clone(course.AvailableDates)
		course.Date = domain.DateUnselected
		if date != "" && slices.Contains(course.AvailableDates, date) {
			course.Date = date
		}
		item.Course = &course
	}
	return item, nil
}

func (s *Service) lookup(ctx context.Context, itemType domain.ItemType, itemID string) (domain.CartItem, error) {
	key := string(itemType) + ":" + itemID
	if item, ok := s.cache.Get(key); ok {
		return item, nil
	}

	var item domain.CartItem
	switch itemType {
	case domain.ItemTypeCourse:
		doc, err := s.src.Course(ctx, itemID)
		if err != nil {
			return item, err
		}
		dates := doc.AvailableDates
		if dates == nil {
			dates = []string{}
		}
		item = domain.CartItem{
			ItemID: itemID, ItemType: itemType, Name: doc.Title, Price: doc.Price,
			Course: &domain.CourseDetails{
				Date:           domain.DateUnselected,
				TotalTime:      doc.TotalTime,
				ClassType:      doc.ClassType,
				AvailableDates: dates,
			},
		}
	case domain.ItemTypeEbook:
		doc, err := s.src.Ebook(ctx, itemID)
		if err != nil {
			return item, err
		}
		item = domain.CartItem{
			ItemID: itemID, ItemType: itemType, Name: doc.Title, Price: doc.Price,
			Ebook: &domain.EbookDetails{PageCount: doc.PageCount},
		}
	case domain.ItemTypeBootcamp:
		doc, err := s.src.Bootcamp(ctx, itemID)
		if err != nil {
			return item, err
		}
		features := doc.Features
		if features == nil {
			features = []string{}
		}
		item = domain.CartItem{
			ItemID: itemID, ItemType: itemType, Name: doc.Title, Price: doc.Price,
			Bootcamp: &domain.BootcampDetails{
				StartDate: doc.StartDate,
				Duration:  doc.Duration,
				Schedule:  doc.Schedule,
				Features:  features,
			},
		}
	default:
		return item, &domain.ValidationError{Field: "itemType", Message: "unsupported item type"}
	}

	s.cache.Add(key, item)
	return item, nil
}

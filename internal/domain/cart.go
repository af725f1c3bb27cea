package domain

import (
	"errors"
	"strings"
)

// ItemType tags which product family a cart line belongs to.
type ItemType string

const (
	ItemTypeCourse   ItemType = "course"
	ItemTypeEbook    ItemType = "ebook"
	ItemTypeBootcamp ItemType = "bootcamp"
)

// DateUnselected marks a course line whose start date has not been picked yet.
const DateUnselected = "unselected"

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCourse, ItemTypeEbook, ItemTypeBootcamp:
		return true
	default:
		return false
	}
}

// ParseItemType normalizes a client supplied item type.
func ParseItemType(raw string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", &ValidationError{Field: "itemType", Message: "unsupported item type"}
	}
	return t, nil
}

// CartItem is one line of a cart. Exactly one of Course, Ebook or Bootcamp is
// set, matching ItemType.
type CartItem struct {
	ID       string           `json:"id"`
	ItemID   string           `json:"itemId"`
	ItemType ItemType         `json:"itemType"`
	Name     string           `json:"name"`
	Price    int64            `json:"price"`
	Course   *CourseDetails   `json:"course,omitempty"`
	Ebook    *EbookDetails    `json:"ebook,omitempty"`
	Bootcamp *BootcampDetails `json:"bootcamp,omitempty"`
}

type CourseDetails struct {
	Date           string   `json:"date"`
	TotalTime      string   `json:"totalTime,omitempty"`
	ClassType      string   `json:"classType,omitempty"`
	AvailableDates []string `json:"availableDates"`
}

type EbookDetails struct {
	PageCount *int `json:"pageCount,omitempty"`
}

type BootcampDetails struct {
	StartDate string   `json:"startDate,omitempty"`
	Duration  string   `json:"duration,omitempty"`
	Schedule  string   `json:"schedule,omitempty"`
	Features  []string `json:"features"`
}

// Validate checks the union invariants of a cart line.
func (i CartItem) Validate() error {
	if strings.TrimSpace(i.ItemID) == "" {
		return &ValidationError{Field: "itemId", Message: "item id required"}
	}
	if !i.ItemType.Valid() {
		return &ValidationError{Field: "itemType", Message: "unsupported item type"}
	}
	if i.Price < 0 {
		return &ValidationError{Field: "price", Message: "price must be non-negative"}
	}
	switch i.ItemType {
	case ItemTypeCourse:
		if i.Course == nil || i.Ebook != nil || i.Bootcamp != nil {
			return errors.New("course line must carry course details only")
		}
	case ItemTypeEbook:
		if i.Course != nil || i.Bootcamp != nil {
			return errors.New("ebook line must not carry course or bootcamp details")
		}
	case ItemTypeBootcamp:
		if i.Bootcamp == nil || i.Course != nil || i.Ebook != nil {
			return errors.New("bootcamp line must carry bootcamp details only")
		}
	}
	return nil
}

// SameProduct reports whether two lines reference the same product.
func (i CartItem) SameProduct(other CartItem) bool {
	return i.ItemType == other.ItemType && i.ItemID == other.ItemID
}

// GuestLineID is the guest cart line id for a product. The CMS collections may
// reuse ids, so the item type is part of it.
func GuestLineID(t ItemType, itemID string) string {
	return string(t) + ":" + itemID
}

// ContainsProduct reports whether items already hold a line for the product.
func ContainsProduct(items []CartItem, itemType ItemType, itemID string) bool {
	for _, it := range items {
		if it.ItemType == itemType && it.ItemID == itemID {
			return true
		}
	}
	return false
}

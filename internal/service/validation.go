package service

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"zerowaste/internal/model"
)

const (
	maxUnitLength        = 32
	maxDescriptionLength = 2000
	dateOnlyLayout       = "2006-01-02"
)

// parseExpiration accepts RFC 3339 timestamps and plain dates. A plain date is
// read as midnight UTC of that day.
func parseExpiration(raw string) (t time.Time, dateOnly bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), false, true
	}
	if parsed, err := time.Parse(dateOnlyLayout, raw); err == nil {
		return parsed.UTC(), true, true
	}
	return time.Time{}, false, false
}

// expired reports whether an expiration lies in the past. Plain dates stay
// valid for the whole day.
func expired(exp time.Time, dateOnly bool, now time.Time) bool {
	if dateOnly {
		y, m, d := now.UTC().Date()
		return exp.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	return exp.Before(now)
}

func validQuantity(q float64) bool {
	return q > 0 && !math.IsInf(q, 0) && !math.IsNaN(q)
}

func normalizeUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return model.UnitUnits
	}
	return unit
}

// validateCreate checks every field of a create request and returns the
// normalized donation fields.
func validateCreate(req *model.CreateDonationRequest, now time.Time) (model.Donation, error) {
	verr := &model.ValidationError{}
	if req == nil {
		verr.Add("body", "request body is required")
		return model.Donation{}, verr
	}

	d := model.Donation{
		ProductName: strings.TrimSpace(req.ProductName),
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		Unit:        normalizeUnit(req.Unit),
		PhotoRef:    strings.TrimSpace(req.PhotoRef),
	}

	if d.ProductName == "" {
		verr.Add("productName", "must not be empty")
	}
	if !validQuantity(d.Quantity) {
		verr.Add("quantity", "must be greater than zero")
	}
	if utf8.RuneCountInString(d.Unit) > maxUnitLength {
		verr.Add("unit", "must be at most 32 characters")
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		verr.Add("description", "must be at most 2000 characters")
	}

	exp, dateOnly, ok := parseExpiration(req.ExpirationDate)
	switch {
	case strings.TrimSpace(req.ExpirationDate) == "":
		verr.Add("expirationDate", "is required")
	case !ok:
		verr.Add("expirationDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	case expired(exp, dateOnly, now):
		verr.Add("expirationDate", "must not be in the past")
	default:
		d.ExpirationDate = exp
	}

	return d, verr.Err()
}

// validateEdit checks the supplied fields of an edit request.
func validateEdit(req *model.EditDonationRequest) (model.DonationChanges, error) {
	verr := &model.ValidationError{}
	var c model.DonationChanges
	if req == nil {
		verr.Add("body", "request body is required")
		return c, verr
	}

	if req.ProductName != nil {
		name := strings.TrimSpace(*req.ProductName)
		if name == "" {
			verr.Add("productName", "must not be empty")
		}
		c.ProductName = &name
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(desc) > maxDescriptionLength {
			verr.Add("description", "must be at most 2000 characters")
		}
		c.Description = &desc
	}
	if req.Quantity != nil {
		if !validQuantity(*req.Quantity) {
			verr.Add("quantity", "must be greater than zero")
		}
		c.Quantity = req.Quantity
	}
	if req.Unit != nil {
		unit := normalizeUnit(*req.Unit)
		if utf8.RuneCountInString(unit) > maxUnitLength {
			verr.Add("unit", "must be at most 32 characters")
		}
		c.Unit = &unit
	}
	if req.ExpirationDate != nil {
		exp, _, ok := parseExpiration(*req.ExpirationDate)
		if !ok {
			verr.Add("expirationDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
		c.ExpirationDate = &exp
	}
	if req.PhotoRef != nil {
		ref := strings.TrimSpace(*req.PhotoRef)
		c.PhotoRef = &ref
	}

	return c, verr.Err()
}

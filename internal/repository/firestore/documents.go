package firestore

import (
	"time"

	"google.golang.org/genproto/googleapis/type/latlng"

	"dispatch/internal/domain"
)

// Document shapes match the collections written by the web frontend:
// camelCase field names and millisecond createdAt. Order pickups are
// Firestore geopoints; company and rider locations are {lat, lng} maps.

type locationDoc struct {
	Lat float64 `firestore:"lat"`
	Lng float64 `firestore:"lng"`
}

type companyDoc struct {
	CompanyName      string       `firestore:"companyName"`
	Location         *locationDoc `firestore:"location,omitempty"`
	LocationObject   *locationDoc `firestore:"locationObject,omitempty"` // written by /api/companies/new
	WhatsApp         string       `firestore:"whatsapp"`
	Email            *string      `firestore:"email"`
	FormattedAddress string       `firestore:"formattedAddress"`
	CreatedAt        int64        `firestore:"createdAt"`
}

type riderDoc struct {
	CompanyID        string       `firestore:"companyId"`
	Name             string       `firestore:"name"`
	Location         *locationDoc `firestore:"location"`
	Phone            string       `firestore:"phone"`
	FormattedAddress string       `firestore:"formattedAddress"`
	IsAvailable      bool         `firestore:"isAvailable"`
	CreatedAt        int64        `firestore:"createdAt"`
}

type orderDoc struct {
	CustomerName     string         `firestore:"customerName"`
	CustomerPhone    string         `firestore:"customerPhone"`
	OrderLocation    *latlng.LatLng `firestore:"orderLocation"`
	Details          string         `firestore:"details"`
	CompanyID        string         `firestore:"companyId"`
	AssignedRiderID  string         `firestore:"assignedRiderId"`
	Status           string         `firestore:"status"`
	FormattedAddress string         `firestore:"formattedAddress"`
	CreatedAt        int64          `firestore:"createdAt"`
	AssignedAt       int64          `firestore:"assignedAt"`
	ClosedAt         int64          `firestore:"closedAt"`
}

func toLocationDoc(p domain.GeoPoint) *locationDoc {
	return &locationDoc{Lat: p.Lat, Lng: p.Lng}
}

func (l *locationDoc) point() domain.GeoPoint {
	if l == nil {
		return domain.GeoPoint{}
	}
	return domain.GeoPoint{Lat: l.Lat, Lng: l.Lng}
}

func toGeoPoint(p domain.GeoPoint) *latlng.LatLng {
	return &latlng.LatLng{Latitude: p.Lat, Longitude: p.Lng}
}

func fromGeoPoint(g *latlng.LatLng) domain.GeoPoint {
	return domain.GeoPoint{Lat: g.GetLatitude(), Lng: g.GetLongitude()}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toCompanyDoc(c *domain.Company) companyDoc {
	doc := companyDoc{
		CompanyName:      c.Name,
		Location:         toLocationDoc(c.Location),
		WhatsApp:         c.Phone,
		FormattedAddress: c.FormattedAddress,
		CreatedAt:        toMillis(c.CreatedAt),
	}
	if c.Email != "" {
		email := c.Email
		doc.Email = &email
	}
	return doc
}

func (d companyDoc) company(id string) *domain.Company {
	c := &domain.Company{
		ID:               id,
		Name:             d.CompanyName,
		Location:         d.location(),
		Phone:            d.WhatsApp,
		FormattedAddress: d.FormattedAddress,
		CreatedAt:        fromMillis(d.CreatedAt),
	}
	if d.Email != nil {
		c.Email = *d.Email
	}
	return c
}

func (d companyDoc) location() domain.GeoPoint {
	if d.Location == nil {
		return d.LocationObject.point()
	}
	return d.Location.point()
}

func toRiderDoc(r *domain.Rider) riderDoc {
	return riderDoc{
		CompanyID:        r.CompanyID,
		Name:             r.Name,
		Location:         toLocationDoc(r.Location),
		Phone:            r.Phone,
		FormattedAddress: r.FormattedAddress,
		IsAvailable:      r.IsAvailable,
		CreatedAt:        toMillis(r.CreatedAt),
	}
}

func (d riderDoc) rider(id string) *domain.Rider {
	return &domain.Rider{
		ID:               id,
		CompanyID:        d.CompanyID,
		Name:             d.Name,
		Location:         d.Location.point(),
		Phone:            d.Phone,
		FormattedAddress: d.FormattedAddress,
		IsAvailable:      d.IsAvailable,
		CreatedAt:        fromMillis(d.CreatedAt),
	}
}

func toOrderDoc(o *domain.Order) orderDoc {
	return orderDoc{
		CustomerName:     o.CustomerName,
		CustomerPhone:    o.CustomerPhone,
		OrderLocation:    toGeoPoint(o.Pickup),
		Details:          o.Details,
		CompanyID:        o.CompanyID,
		AssignedRiderID:  o.AssignedRiderID,
		Status:           string(o.Status),
		FormattedAddress: o.FormattedAddress,
		CreatedAt:        toMillis(o.CreatedAt),
		AssignedAt:       toMillis(o.AssignedAt),
		ClosedAt:         toMillis(o.ClosedAt),
	}
}

func (d orderDoc) order(id string) *domain.Order {
	return &domain.Order{
		ID:               id,
		CustomerName:     d.CustomerName,
		CustomerPhone:    d.CustomerPhone,
		Pickup:           fromGeoPoint(d.OrderLocation),
		Details:          d.Details,
		CompanyID:        d.CompanyID,
		AssignedRiderID:  d.AssignedRiderID,
		Status:           domain.OrderStatus(d.Status),
		FormattedAddress: d.FormattedAddress,
		CreatedAt:        fromMillis(d.CreatedAt),
		AssignedAt:       fromMillis(d.AssignedAt),
		ClosedAt:         fromMillis(d.ClosedAt),
	}
}

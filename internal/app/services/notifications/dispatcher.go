package notifications

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
	domainlistings "geargrab/internal/domain/listings"
	domainuser "geargrab/internal/domain/user"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var ErrUnknownTemplate = errors.New("notifications: unknown template")

type audience int

const (
	toOwner audience = iota
	toRenter
	toBoth
)

func audienceFor(kind policies.Notification) (audience, bool) {
	switch kind {
	case policies.NotifyNewBookingRequest:
		return toOwner, true
	case policies.NotifyBookingApproved:
		return toRenter, true
	case policies.NotifyPaymentConfirmed,
		policies.NotifyBookingConfirmed,
		policies.NotifyBookingStarted,
		policies.NotifyBookingCompleted,
		policies.NotifyBookingCancelled,
		policies.NotifyBookingDisputed:
		return toBoth, true
	}
	return 0, false
}

type emailTemplate struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

// Templates holds the parsed subject/text/html set of every notification.
type Templates struct {
	byKind map[policies.Notification]emailTemplate
}

// LoadTemplates parses the embedded templates. Each file defines "subject", "text" and "html".
func LoadTemplates() (*Templates, error) {
	kinds := []policies.Notification{
		policies.NotifyNewBookingRequest,
		policies.NotifyBookingApproved,
		policies.NotifyPaymentConfirmed,
		policies.NotifyBookingConfirmed,
		policies.NotifyBookingStarted,
		policies.NotifyBookingCompleted,
		policies.NotifyBookingCancelled,
		policies.NotifyBookingDisputed,
	}
	out := &Templates{byKind: make(map[policies.Notification]emailTemplate, len(kinds))}
	for _, kind := range kinds {
		path := "templates/" + string(kind) + ".tmpl"
		text, err := texttemplate.ParseFS(templateFS, path)
		if err != nil {
			return nil, fmt.Errorf("notifications: parse %s: %w", path, err)
		}
		html, err := htmltemplate.ParseFS(templateFS, path)
		if err != nil {
			return nil, fmt.Errorf("notifications: parse %s: %w", path, err)
		}
		out.byKind[kind] = emailTemplate{text: text, html: html}
	}
	return out, nil
}

// Rendered is one email body ready for a sender.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

func (t *Templates) Render(kind policies.Notification, data Data) (Rendered, error) {
	tpl, ok := t.byKind[kind]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	var subject, text, html bytes.Buffer
	if err := tpl.text.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Rendered{}, err
	}
	if err := tpl.text.ExecuteTemplate(&text, "text", data); err != nil {
		return Rendered{}, err
	}
	if err := tpl.html.ExecuteTemplate(&html, "html", data); err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject: strings.TrimSpace(subject.String()),
		Text:    strings.TrimSpace(text.String()),
		HTML:    strings.TrimSpace(html.String()),
	}, nil
}

// Data is the view passed to every template.
type Data struct {
	RecipientName   string
	RenterName      string
	OwnerName       string
	BookingID       string
	BookingURL      string
	ListingTitle    string
	Location        string
	StartDate       string
	EndDate         string
	Days            int
	BasePrice       string
	ServiceFee      string
	TotalPrice      string
	SecurityDeposit string
	Status          string
	Reason          string
}

const dateLayout = "Jan 2, 2006"

// Dispatcher renders booking notifications and hands them to an EmailSender. Failures
// are logged and never reach the caller.
type Dispatcher struct {
	Bookings  domainbooking.Repository
	Listings  domainlistings.Repository
	Users     domainuser.Directory
	Sender    policies.EmailSender
	Templates *Templates
	BaseURL   string
	Logger    *slog.Logger
}

func (d *Dispatcher) Notify(ctx context.Context, bookingID string, kind policies.Notification) {
	logger := d.logger().With("booking_id", bookingID, "notification", kind)
	sent, err := d.dispatch(ctx, bookingID, kind)
	if err != nil {
		logger.ErrorContext(ctx, "notification not sent", "error", err)
		return
	}
	logger.DebugContext(ctx, "notification dispatched", "recipients", sent)
}

func (d *Dispatcher) dispatch(ctx context.Context, bookingID string, kind policies.Notification) (int, error) {
	if d.Bookings == nil || d.Users == nil || d.Sender == nil || d.Templates == nil {
		return 0, errors.New("notifications: dispatcher not configured")
	}
	who, ok := audienceFor(kind)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	b, err := d.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return 0, fmt.Errorf("load booking: %w", err)
	}
	renter, err := d.Users.ByID(ctx, domainuser.ID(b.RenterID))
	if err != nil {
		return 0, fmt.Errorf("load renter %s: %w", b.RenterID, err)
	}
	owner, err := d.Users.ByID(ctx, domainuser.ID(b.OwnerID))
	if err != nil {
		return 0, fmt.Errorf("load owner %s: %w", b.OwnerID, err)
	}
	data := d.baseData(ctx, b, renter, owner)

	var recipients []*domainuser.User
	switch who {
	case toOwner:
		recipients = []*domainuser.User{owner}
	case toRenter:
		recipients = []*domainuser.User{renter}
	case toBoth:
		recipients = []*domainuser.User{renter, owner}
	}

	var errs []error
	sent := 0
	for _, to := range recipients {
		data.RecipientName = to.Greeting()
		rendered, err := d.Templates.Render(kind, data)
		if err != nil {
			return sent, err
		}
		res := d.Sender.Send(ctx, policies.Email{
			To:      to.Email,
			ToName:  to.DisplayName,
			Subject: rendered.Subject,
			HTML:    rendered.HTML,
			Text:    rendered.Text,
			Tags:    map[string]string{"notification": string(kind), "booking_id": bookingID},
		})
		if !res.Success {
			errs = append(errs, fmt.Errorf("send to %s: %s", to.ID, res.Error))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (d *Dispatcher) baseData(ctx context.Context, b *domainbooking.Booking, renter, owner *domainuser.User) Data {
	data := Data{
		RenterName:      renter.Greeting(),
		OwnerName:       owner.Greeting(),
		BookingID:       string(b.ID),
		BookingURL:      strings.TrimRight(d.BaseURL, "/") + "/bookings/" + string(b.ID),
		ListingTitle:    b.ListingTitle,
		StartDate:       b.Range.Start.Format(dateLayout),
		EndDate:         b.Range.End.Format(dateLayout),
		Days:            b.Pricing.Days,
		BasePrice:       b.Pricing.BasePrice.String(),
		ServiceFee:      b.Pricing.ServiceFee.String(),
		TotalPrice:      b.Pricing.TotalPrice.String(),
		SecurityDeposit: b.Pricing.SecurityDeposit.String(),
		Status:          string(b.Status),
		Reason:          b.CancellationReason,
	}
	if d.Listings != nil {
		if listing, err := d.Listings.ByID(ctx, b.ListingID); err == nil {
			data.Location = listing.Location
		}
	}
	return data
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.DiscardHandler)
}

var _ policies.Notifier = (*Dispatcher)(nil)

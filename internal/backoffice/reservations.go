package backoffice

import (
	"context"
	"strconv"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/notify"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

// NotifyReservation forwards ledger reservation events to the notifier with
// the car and customer named.
func (service *Service) NotifyReservation(ctx context.Context, event ledger.ReservationEvent) error {
	reservation := event.Reservation
	attributes := service.describeParties(ctx, reservation.CarID, reservation.CustomerID)
	attributes["days"] = strconv.Itoa(len(reservation.Days))
	if lastDay, ok := reservation.LastDay(); ok {
		attributes["until"] = lastDay.String()
	}

	kind := notify.KindReservation
	switch event.Kind {
	case ledger.EventReservationCreated:
		if firstDay, ok := reservation.FirstDay(); ok {
			attributes["from"] = firstDay.String()
		}
	case ledger.EventReservationExtended:
		kind = notify.KindExtension
		attributes["daysAdded"] = strconv.Itoa(event.DaysAdded)
	}
	return service.notifier.Notify(ctx, notify.Event{
		Kind:       kind,
		Subject:    reservation.ID,
		Amount:     reservation.TotalPrice,
		Attributes: attributes,
	})
}

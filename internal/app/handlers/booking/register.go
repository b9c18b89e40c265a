package booking

import (
	"geargrab/internal/app/commands"
	"geargrab/internal/app/queries"
)

// Register attaches every booking command and query handler to the buses.
func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, svc Lifecycle) {
	commands.RegisterHandler(cmdBus, createBookingKey, &CreateBookingHandler{Service: svc})
	commands.RegisterHandler(cmdBus, updateBookingStatusKey, &UpdateBookingStatusHandler{Service: svc})
	commands.RegisterHandler(cmdBus, approveBookingKey, &ApproveBookingHandler{Service: svc})
	commands.RegisterHandler(cmdBus, cancelBookingKey, &CancelBookingHandler{Service: svc})
	commands.RegisterHandler(cmdBus, completeBookingKey, &CompleteBookingHandler{Service: svc})
	commands.RegisterHandler(cmdBus, startPaymentKey, &StartPaymentHandler{Service: svc})
	commands.RegisterHandler(cmdBus, processPaymentKey, &ProcessPaymentHandler{Service: svc})
	commands.RegisterHandler(cmdBus, releaseDepositKey, &ReleaseDepositHandler{Service: svc})

	queries.RegisterHandler(queryBus, getBookingStatusKey, &GetBookingStatusHandler{Service: svc})
	queries.RegisterHandler(queryBus, getBookingKey, &GetBookingHandler{Service: svc})
	queries.RegisterHandler(queryBus, listBookingsKey, &ListBookingsHandler{Service: svc})
}

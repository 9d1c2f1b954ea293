// Handler wiring.
//
// Handlers groups the HTTP endpoints for accounts, conversation, and gold
// purchases. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
package handlers

// Handlers groups HTTP endpoints for accounts, queries, and purchases.
type Handlers struct {
	authSvc  AuthService
	chatSvc  ChatService
	goldSvc  GoldService
	replayFn PurchaseReplay
}

// New constructs and returns a Handlers instance bound to the given services.
// replay may be nil to disable idempotent purchase replays.
func New(authSvc AuthService, chatSvc ChatService, goldSvc GoldService, replay PurchaseReplay) *Handlers {
	return &Handlers{authSvc: authSvc, chatSvc: chatSvc, goldSvc: goldSvc, replayFn: replay}
}

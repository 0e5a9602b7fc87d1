package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/assemble"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/facts"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/reply"
)

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func baseContext() *assemble.Context {
	return &assemble.Context{
		CheckInTime:  assemble.DefaultCheckInTime,
		CheckOutTime: assemble.DefaultCheckOutTime,
		EarlyFee:     assemble.DefaultEarlyFee,
		LateFee:      assemble.DefaultLateFee,
	}
}

func baseDraft() *reply.Draft {
	return &reply.Draft{
		Intent:     reply.IntentQuestion,
		Confidence: 0.8,
		Reply:      "Sure, let me check on that for you.",
	}
}

func TestEarlyCheckInBlockedNight(t *testing.T) {
	c := baseContext()
	c.Latest = "can we check in early?"
	c.Intent = reply.IntentEarlyCheckIn
	c.Calendar = assemble.CalendarInfo{LookedUp: true, PriorNightOpen: boolPtr(false)}

	d := baseDraft()
	d.Reply = "Sure, early check-in at noon is no problem!"
	New(nil).Apply(d, c)

	assert.Equal(t, "Standard check-in is 4:00 PM. The night before is booked, so early check-in may not be possible. I can request it if anything changes.", d.Reply)
	assert.True(t, d.Actions.CheckCalendar)
	// The availability answer stands on its own; no clarification forced.
	assert.False(t, d.NeedsClarification)
	assert.Empty(t, d.ClarifyingQuestion)
}

func TestEarlyCheckInFeeQuote(t *testing.T) {
	c := baseContext()
	c.Latest = "any chance of early check in?"
	c.Intent = reply.IntentEarlyCheckIn

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Equal(t, "Standard check-in is 4:00 PM. I can request early check-in if the schedule allows (typically $50).", d.Reply)
	assert.True(t, d.NeedsClarification)
	assert.Equal(t, "What time are you hoping for?", d.ClarifyingQuestion)
	assert.True(t, d.Actions.CheckCalendar)
}

func TestLateCheckoutTurnoverDay(t *testing.T) {
	c := baseContext()
	c.Latest = "could we get a late check out?"
	c.Intent = reply.IntentLateCheckout
	c.Calendar = assemble.CalendarInfo{LookedUp: true, CheckoutAvailable: boolPtr(false)}

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "Check-out is 11:00 AM.")
	assert.Contains(t, d.Reply, "late checkout may not be possible")
	assert.True(t, d.Actions.CheckCalendar)
}

func TestDepositAmountQuestion(t *testing.T) {
	c := baseContext()
	c.Latest = "Is the security deposit $300?"
	c.Intent = reply.IntentRules
	c.ChargesLookedUp = true
	c.Deposit = facts.Deposit{Present: true, Type: "preauth", Status: "awaitinghold", Amount: floatPtr(300), Currency: "USD", ActiveHold: true}

	d := baseDraft()
	d.Reply = "I believe the deposit is around three hundred dollars, pay at https://example.com/pay please."
	New(nil).Apply(d, c)

	assert.Equal(t, "Yes—USD 300. It's a refundable hold processed before arrival.", d.Reply)
}

func TestDepositActiveHold(t *testing.T) {
	c := baseContext()
	c.Latest = "did you already take the deposit?"
	c.Deposit = facts.Deposit{Present: true, Amount: floatPtr(250), ActiveHold: true, HoldReleaseDate: "2024-06-14"}

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Equal(t, "We already have a refundable hold on file for USD 250. It auto-releases on 2024-06-14.", d.Reply)
}

func TestDepositAwaiting(t *testing.T) {
	c := baseContext()
	c.Latest = "when is the deposit charged?"
	c.Deposit = facts.Deposit{Present: true, Amount: floatPtr(250), Status: "awaiting"}
	c.Payments = facts.PaymentsSummary{NextScheduled: "2024-06-05"}

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Equal(t, "A refundable hold of USD 250 is scheduled/awaiting. Next scheduled step: 2024-06-05.", d.Reply)
}

func TestDepositLinkStrippedUnlessRequested(t *testing.T) {
	c := baseContext()
	c.Latest = "tell me about the deposit"

	d := baseDraft()
	d.Reply = "It's a refundable hold processed before arrival. Pay here: https://pay.example.com/x"
	New(nil).Apply(d, c)
	assert.NotContains(t, d.Reply, "https://")

	c.Latest = "can you send the payment link for the deposit"
	d = baseDraft()
	d.Reply = "It's a refundable hold processed before arrival. Pay here: https://pay.example.com/x"
	New(nil).Apply(d, c)
	assert.Contains(t, d.Reply, "https://pay.example.com/x")
}

func TestExtensionQuote(t *testing.T) {
	c := baseContext()
	c.Latest = "can we extend 3 more nights?"
	c.Intent = reply.IntentExtendStay
	c.CheckIn = "2024-06-07"
	c.CheckOut = "2024-06-10"
	c.ExtraNights = intPtr(3)
	c.Extension = assemble.Extension{Requested: true, Nights: 3, NewCheckOut: "2024-06-13", Subtotal: floatPtr(540)}

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "booked through 2024-06-10")
	assert.Contains(t, d.Reply, "Rough subtotal for 3 night(s): USD 540 before taxes/fees.")
	assert.True(t, d.NeedsClarification)
	assert.True(t, d.Actions.CheckCalendar)
}

func TestExtensionWithoutDates(t *testing.T) {
	c := baseContext()
	c.Latest = "can we extend our stay?"
	c.Intent = reply.IntentExtendStay
	c.Extension = assemble.Extension{Requested: true}

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Equal(t, "I can check an extension for you and see if the extra nights are open.", d.Reply)
	assert.Equal(t, "How many extra nights are you thinking?", d.ClarifyingQuestion)
	assert.True(t, d.Actions.CheckCalendar)
}

func TestReservationNotActive(t *testing.T) {
	c := baseContext()
	c.Latest = "is our reservation still good?"
	c.Status = facts.StatusCancelled

	d := baseDraft()
	d.Reply = "You're all set, see you soon!"
	New(nil).Apply(d, c)

	assert.Equal(t, "This reservation isn't active. I can share available dates or set you up with a new booking.", d.Reply)
	assert.True(t, d.NeedsClarification)
	assert.Equal(t, "Want me to check fresh dates for you?", d.ClarifyingQuestion)
	assert.True(t, d.Actions.CheckCalendar)
}

func TestOwnerStay(t *testing.T) {
	c := baseContext()
	c.Latest = "are those dates open?"
	c.Status = facts.StatusOwnerStay

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Equal(t, "Those dates aren't available due to an owner stay. I can suggest nearby dates that are open.", d.Reply)
	assert.Equal(t, "Are your dates flexible?", d.ClarifyingQuestion)
}

func TestPaymentOutstandingBlocksConfirmation(t *testing.T) {
	c := baseContext()
	c.Latest = "are we good to go?"
	c.Status = facts.StatusAwaitingPayment

	d := baseDraft()
	d.Reply = "You're all set! See you at check-in."
	New(nil).Apply(d, c)
	assert.Equal(t, "I can hold this while payment is completed. Once that's done, I'll confirm right away.", d.Reply)

	// A draft that promises nothing passes through.
	d = baseDraft()
	d.Reply = "Let me verify the payment and get back to you."
	New(nil).Apply(d, c)
	assert.Equal(t, "Let me verify the payment and get back to you.", d.Reply)
}

func TestDoorCodeDeferredBeforeArrival(t *testing.T) {
	c := baseContext()
	c.Latest = "what's the door code?"
	c.DoorCode = "4711"
	c.IsCheckinDay = false

	d := baseDraft()
	d.Reply = "The door code is 4711, have a great stay!"
	New(nil).Apply(d, c)

	assert.NotContains(t, d.Reply, "4711")
	assert.Contains(t, d.Reply, "closer to arrival")
}

func TestDoorCodeDisclosedOnCheckinDay(t *testing.T) {
	c := baseContext()
	c.Latest = "what's the door code?"
	c.DoorCode = "4711"
	c.IsCheckinDay = true

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Equal(t, "Your door code is 4711. Enter it on the keypad and press the check mark to unlock.", d.Reply)
}

func TestDoorCodeUnknownStaysDeferred(t *testing.T) {
	c := baseContext()
	c.Latest = "access code please"
	c.IsCheckinDay = true

	d := baseDraft()
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "closer to arrival")
}

func TestLocalRecsShortCircuit(t *testing.T) {
	c := baseContext()
	c.Latest = "any good places to eat?"
	c.Intent = reply.IntentFoodRecs
	c.Nearby = []assemble.Recommendation{
		{Label: "Good Restaurants", Name: "Gumbo Shack", Rating: floatPtr(4.5), Reviews: intPtr(1283), Minutes: intPtr(6)},
		{Label: "Good Restaurants", Name: "The Spot", Rating: floatPtr(4.3)},
	}

	d := baseDraft()
	d.NeedsClarification = true
	d.ClarifyingQuestion = "What cuisine do you like?"
	New(nil).Apply(d, c)

	want := "Good Restaurants:\n- Gumbo Shack (4.5 (1283 reviews), ~6 min drive)\n- The Spot (4.3)"
	assert.Equal(t, want, d.Reply)
	assert.False(t, d.NeedsClarification)
	assert.Empty(t, d.ClarifyingQuestion)
}

func TestIssueReportTone(t *testing.T) {
	c := baseContext()
	c.Latest = "the place is dirty, there are bugs"
	c.Intent = reply.IntentIssueReport

	d := baseDraft()
	d.Reply = "We can leave a vacuum in the hallway closet. Let us know."
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "I'm sorry about that.")
	assert.Contains(t, d.Reply, "I can send our cleaners back—what time works for you?")
	assert.NotContains(t, d.Reply, "vacuum")
}

func TestEventMentionAppend(t *testing.T) {
	c := baseContext()
	c.Latest = "we're coming for the Lone Star Rally"

	d := baseDraft()
	d.Reply = "Sounds great, the house will be ready."
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "Great time to visit—if you need parking or local tips for the event, I've got you.")
}

func TestDistanceRestaurantAppend(t *testing.T) {
	c := baseContext()
	c.Latest = "how far is the stingaree from the house?"
	c.Intent = reply.IntentDirections

	d := baseDraft()
	d.Reply = "It's about a ten minute drive."
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "It can get busy on weekends—going a bit early helps.")
}

func TestDateRepetitionStripped(t *testing.T) {
	c := baseContext()
	c.Latest = "can you add a crib?"
	c.CheckIn = "2024-06-07"
	c.CheckOut = "2024-06-10"

	d := baseDraft()
	d.Reply = "Absolutely! What are your dates again? I'll note the crib."
	d.NeedsClarification = true
	d.ClarifyingQuestion = "Could you confirm your dates?"
	New(nil).Apply(d, c)

	assert.Equal(t, "Absolutely! I'll note the crib.", d.Reply)
	assert.Equal(t, "Want me to go ahead with that?", d.ClarifyingQuestion)
}

func TestDateRepetitionStripsRephrasedAsks(t *testing.T) {
	c := baseContext()
	c.Latest = "can you add a crib?"
	c.CheckIn = "2024-06-07"
	c.CheckOut = "2024-06-10"

	d := baseDraft()
	d.Reply = "Could you share your check-in and check-out dates? I'll note the crib."
	New(nil).Apply(d, c)
	assert.Equal(t, "I'll note the crib.", d.Reply)

	d = baseDraft()
	d.Reply = "Happy to help. Please provide the exact travel dates so I can confirm."
	New(nil).Apply(d, c)
	assert.Equal(t, "Happy to help.", d.Reply)
}

func TestDateRepetitionKeptWhenDatesUnknown(t *testing.T) {
	c := baseContext()
	c.Latest = "can you add a crib?"

	d := baseDraft()
	d.Reply = "Absolutely! What are your dates?"
	New(nil).Apply(d, c)

	assert.Contains(t, d.Reply, "What are your dates?")
}

func TestPolish(t *testing.T) {
	c := baseContext()
	c.Latest = "thanks!"

	d := baseDraft()
	d.Reply = "Great.We'll   see you then .\n\n\n\nSafe travels ,  truly."
	New(nil).Apply(d, c)

	assert.Equal(t, "Great. We'll see you then.\n\nSafe travels, truly.", d.Reply)
}

func TestApplyIsIdempotent(t *testing.T) {
	contexts := []*assemble.Context{}

	blocked := baseContext()
	blocked.Latest = "can we check in early?"
	blocked.Intent = reply.IntentEarlyCheckIn
	blocked.Calendar = assemble.CalendarInfo{LookedUp: true, PriorNightOpen: boolPtr(false), DayAfterOpen: boolPtr(true)}
	contexts = append(contexts, blocked)

	dep := baseContext()
	dep.Latest = "Is the security deposit $300?"
	dep.Deposit = facts.Deposit{Present: true, Amount: floatPtr(300), Currency: "USD", ActiveHold: true}
	contexts = append(contexts, dep)

	issue := baseContext()
	issue.Latest = "the kitchen is dirty and it smells"
	issue.Intent = reply.IntentIssueReport
	issue.CheckIn = "2024-06-07"
	issue.CheckOut = "2024-06-10"
	contexts = append(contexts, issue)

	inactive := baseContext()
	inactive.Latest = "is our booking still on?"
	inactive.Status = facts.StatusExpired
	inactive.CheckIn = "2024-06-07"
	inactive.CheckOut = "2024-06-10"
	contexts = append(contexts, inactive)

	event := baseContext()
	event.Latest = "in town for mardi gras, how far is the stingaree?"
	event.Intent = reply.IntentDirections
	contexts = append(contexts, event)

	e := New(nil)
	for i, c := range contexts {
		d := baseDraft()
		e.Apply(d, c)
		first := *d
		e.Apply(d, c)
		require.Equal(t, first, *d, "case %d changed on second run", i)
	}
}

func TestFallbackDraftSurvivesGuards(t *testing.T) {
	c := baseContext()
	c.Latest = "can we extend?"
	c.Intent = reply.IntentExtendStay
	c.CheckIn = "2024-06-07"
	c.CheckOut = "2024-06-10"

	d := reply.Fallback()
	e := New(nil)
	e.Apply(d, c)
	first := *d
	e.Apply(d, c)
	assert.Equal(t, first, *d)
	assert.NotEmpty(t, d.Reply)
}

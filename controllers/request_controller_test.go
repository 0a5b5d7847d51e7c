package controllers

import (
	"net/http"
	"testing"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
)

func pendingRequestID(t *testing.T, bookID, userID uint) uint {
	t.Helper()
	var req models.BookRequest
	if err := database.DB.
		Where("book_id = ? AND user_id = ? AND status = ?", bookID, userID, models.RequestPending).
		First(&req).Error; err != nil {
		t.Fatalf("pending request for user %d on book %d: %v", userID, bookID, err)
	}
	return req.ID
}

func TestRequestBook(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "Gora")

	w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("request: status %d, body %s", w.Code, w.Body.String())
	}

	got := reloadBook(t, book.ID)
	if got.Status != models.BookRequested {
		t.Fatalf("book status = %s, want Requested", got.Status)
	}
	if len(got.Requests) != 1 || got.Requests[0].Status != models.RequestPending {
		t.Fatalf("requests = %+v, want one pending", got.Requests)
	}

	notifs := notificationsFor(t, owner.ID)
	if len(notifs) != 1 || notifs[0].Type != models.NotifBookRequest {
		t.Fatalf("owner notifications = %+v, want one book-request", notifs)
	}
	if notifs[0].RequestID == nil || *notifs[0].RequestID != got.Requests[0].ID {
		t.Fatalf("notification request id = %v, want %d", notifs[0].RequestID, got.Requests[0].ID)
	}
}

func TestRequestBookConflicts(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "Gitanjali")

	// Owner cannot request their own book
	if w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, owner), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("own book request: status %d, want 400", w.Code)
	}

	if w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil); w.Code != http.StatusOK {
		t.Fatalf("first request: status %d", w.Code)
	}

	// Duplicate pending request
	if w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate request: status %d, want 400", w.Code)
	}

	// Unknown book
	if w := doRequest(t, router, "POST", "/api/books/9999/request", token(t, requester), nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown book: status %d, want 404", w.Code)
	}
}

func TestRequestBlockedByActiveChat(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "Malgudi Days")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	reqID := pendingRequestID(t, book.ID, requester.ID)
	if w := doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(reqID), token(t, owner), nil); w.Code != http.StatusOK {
		t.Fatalf("accept: status %d", w.Code)
	}

	// The accepted requester cannot re-request while the chat is open
	if w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("request with open chat: status %d, want 400", w.Code)
	}
}

func TestWithdrawRevertsStatus(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "Godan")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)

	w := doRequest(t, router, "POST", bookPath(book.ID, "withdraw"), token(t, requester), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("withdraw: status %d, body %s", w.Code, w.Body.String())
	}

	got := reloadBook(t, book.ID)
	if got.Status != models.BookAvailable {
		t.Fatalf("book status = %s, want Available", got.Status)
	}
	if got.AcceptedRequestID != nil {
		t.Fatalf("accepted request id = %v, want nil", got.AcceptedRequestID)
	}
	if got.Requests[0].Status != models.RequestWithdrawn {
		t.Fatalf("request status = %s, want Withdrawn", got.Requests[0].Status)
	}

	notifs := notificationsFor(t, owner.ID)
	if len(notifs) != 2 || notifs[1].Type != models.NotifBookWithdraw {
		t.Fatalf("owner notifications = %+v, want book-request then book-withdraw", notifs)
	}

	// Withdraw again fails: nothing pending
	if w := doRequest(t, router, "POST", bookPath(book.ID, "withdraw"), token(t, requester), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("second withdraw: status %d, want 400", w.Code)
	}
}

func TestReRequestAfterWithdraw(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "Shantaram")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	doRequest(t, router, "POST", bookPath(book.ID, "withdraw"), token(t, requester), nil)

	w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("re-request after withdraw: status %d, body %s", w.Code, w.Body.String())
	}

	got := reloadBook(t, book.ID)
	if got.Status != models.BookRequested {
		t.Fatalf("book status = %s, want Requested", got.Status)
	}
}

func TestAcceptBatchRejectsOtherPending(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	u1 := createUser(t, "u1")
	u2 := createUser(t, "u2")
	u3 := createUser(t, "u3")
	book := createBook(t, owner, "Wings of Fire")

	for _, u := range []models.User{u1, u2, u3} {
		if w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, u), nil); w.Code != http.StatusOK {
			t.Fatalf("request by %s: status %d", u.Name, w.Code)
		}
	}

	winnerReq := pendingRequestID(t, book.ID, u1.ID)
	w := doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(winnerReq), token(t, owner), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d, body %s", w.Code, w.Body.String())
	}

	got := reloadBook(t, book.ID)
	if got.AcceptedRequestID == nil || *got.AcceptedRequestID != u1.ID {
		t.Fatalf("accepted request id = %v, want %d", got.AcceptedRequestID, u1.ID)
	}
	if got.Status != models.BookRequested {
		t.Fatalf("book status = %s, want Requested", got.Status)
	}

	statusByUser := map[uint]string{}
	for _, r := range got.Requests {
		statusByUser[r.UserID] = r.Status
	}
	if statusByUser[u1.ID] != models.RequestAccepted {
		t.Fatalf("u1 request = %s, want Accepted", statusByUser[u1.ID])
	}
	if statusByUser[u2.ID] != models.RequestRejected || statusByUser[u3.ID] != models.RequestRejected {
		t.Fatalf("losing requests = %s/%s, want Rejected", statusByUser[u2.ID], statusByUser[u3.ID])
	}

	// Chat exists and is active for (owner, winner)
	userA, userB := models.NormalizePair(owner.ID, u1.ID)
	var chat models.Chat
	if err := database.DB.Where("book_id = ? AND user_a_id = ? AND user_b_id = ?", book.ID, userA, userB).First(&chat).Error; err != nil {
		t.Fatalf("chat lookup: %v", err)
	}
	if !chat.Active || chat.Terminated {
		t.Fatalf("chat active=%v terminated=%v, want active", chat.Active, chat.Terminated)
	}

	// Winner gets book-accepted with a chat reference, owner gets chat-started
	winnerNotifs := notificationsFor(t, u1.ID)
	last := winnerNotifs[len(winnerNotifs)-1]
	if last.Type != models.NotifBookAccepted || last.ChatID == nil || *last.ChatID != chat.ID {
		t.Fatalf("winner notification = %+v, want book-accepted with chat %d", last, chat.ID)
	}
	ownerNotifs := notificationsFor(t, owner.ID)
	lastOwner := ownerNotifs[len(ownerNotifs)-1]
	if lastOwner.Type != models.NotifChatStarted {
		t.Fatalf("owner notification = %+v, want chat-started", lastOwner)
	}

	// Each loser is told their request was rejected
	for _, loser := range []models.User{u2, u3} {
		notifs := notificationsFor(t, loser.ID)
		found := false
		for _, n := range notifs {
			if n.Type == models.NotifBookRejected {
				found = true
			}
		}
		if !found {
			t.Fatalf("loser %s has no book-rejected notification: %+v", loser.Name, notifs)
		}
	}

	// Accepting a second request is impossible: nothing is pending anymore
	loserReq := got.Requests[1].ID
	if w := doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(loserReq), token(t, owner), nil); w.Code != http.StatusNotFound {
		t.Fatalf("second accept: status %d, want 404", w.Code)
	}
}

func TestAcceptAuthorization(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "Train to Pakistan")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	reqID := pendingRequestID(t, book.ID, requester.ID)

	// Only the owner can accept
	if w := doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(reqID), token(t, requester), nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner accept: status %d, want 403", w.Code)
	}

	// Unknown request id
	if w := doRequest(t, router, "POST", bookPath(book.ID, "accept/9999"), token(t, owner), nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown request accept: status %d, want 404", w.Code)
	}
}

func TestRejectRevertsStatusAndClosesChat(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "The Guide")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)

	// A live chat from an earlier accept cycle
	userA, userB := models.NormalizePair(owner.ID, requester.ID)
	chat := models.Chat{BookID: book.ID, UserAID: userA, UserBID: userB, Active: true}
	if err := database.DB.Create(&chat).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	w := doRequest(t, router, "POST", bookPath(book.ID, "reject/")+uitoa(requester.ID), token(t, owner), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reject: status %d, body %s", w.Code, w.Body.String())
	}

	got := reloadBook(t, book.ID)
	if got.Status != models.BookAvailable || got.Requests[0].Status != models.RequestRejected {
		t.Fatalf("after reject: status=%s request=%s", got.Status, got.Requests[0].Status)
	}

	var gotChat models.Chat
	database.DB.First(&gotChat, chat.ID)
	if gotChat.Active {
		t.Fatalf("chat still active after reject")
	}

	// The rejection notice arrives pre-acknowledged
	notifs := notificationsFor(t, requester.ID)
	last := notifs[len(notifs)-1]
	if last.Type != models.NotifBookRejected || !last.Seen {
		t.Fatalf("rejected notification = %+v, want seen book-rejected", last)
	}

	// Owner's originating book-request notification is swept seen
	ownerNotifs := notificationsFor(t, owner.ID)
	for _, n := range ownerNotifs {
		if n.Type == models.NotifBookRequest && !n.Seen {
			t.Fatalf("owner book-request notification not swept: %+v", n)
		}
	}
}

func TestRejectAuthorization(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	stranger := createUser(t, "stranger")
	book := createBook(t, owner, "Ignited Minds")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)

	if w := doRequest(t, router, "POST", bookPath(book.ID, "reject/")+uitoa(requester.ID), token(t, stranger), nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner reject: status %d, want 403", w.Code)
	}
	if w := doRequest(t, router, "POST", bookPath(book.ID, "reject/")+uitoa(stranger.ID), token(t, owner), nil); w.Code != http.StatusNotFound {
		t.Fatalf("reject without request: status %d, want 404", w.Code)
	}
}

func TestMarkDonated(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	book := createBook(t, owner, "My Experiments with Truth")

	// No accepted request yet
	if w := doRequest(t, router, "POST", bookPath(book.ID, "mark-donated"), token(t, owner), nil); w.Code != http.StatusForbidden {
		t.Fatalf("mark-donated without accept: status %d, want 403", w.Code)
	}

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	reqID := pendingRequestID(t, book.ID, requester.ID)
	doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(reqID), token(t, owner), nil)

	w := doRequest(t, router, "POST", bookPath(book.ID, "mark-donated"), token(t, owner), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark-donated: status %d, body %s", w.Code, w.Body.String())
	}

	got := reloadBook(t, book.ID)
	if got.Status != models.BookDonated {
		t.Fatalf("book status = %s, want Donated", got.Status)
	}
	if got.DonatedToID == nil || *got.DonatedToID != requester.ID {
		t.Fatalf("donated to = %v, want %d", got.DonatedToID, requester.ID)
	}

	// Every chat about the book is closed
	var active int64
	database.DB.Model(&models.Chat{}).Where("book_id = ? AND active = ?", book.ID, true).Count(&active)
	if active != 0 {
		t.Fatalf("%d chats still active after donation", active)
	}
}

func TestDonatedBlocksLifecycle(t *testing.T) {
	router := setupRouter(t)
	owner := createUser(t, "owner")
	requester := createUser(t, "requester")
	other := createUser(t, "other")
	book := createBook(t, owner, "Midnight's Children")

	doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, requester), nil)
	reqID := pendingRequestID(t, book.ID, requester.ID)
	doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(reqID), token(t, owner), nil)
	doRequest(t, router, "POST", bookPath(book.ID, "mark-donated"), token(t, owner), nil)

	if w := doRequest(t, router, "POST", bookPath(book.ID, "request"), token(t, other), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("request on donated book: status %d, want 400", w.Code)
	}
	if w := doRequest(t, router, "POST", bookPath(book.ID, "withdraw"), token(t, requester), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("withdraw on donated book: status %d, want 400", w.Code)
	}
	if w := doRequest(t, router, "POST", bookPath(book.ID, "accept/")+uitoa(reqID), token(t, owner), nil); w.Code != http.StatusNotFound {
		t.Fatalf("accept on donated book: status %d, want 404", w.Code)
	}
	if w := doRequest(t, router, "POST", bookPath(book.ID, "reject/")+uitoa(requester.ID), token(t, owner), nil); w.Code != http.StatusNotFound {
		t.Fatalf("reject on donated book: status %d, want 404", w.Code)
	}
}

package controllers_test

import (
	"net/http"
	"testing"

	"github.com/Eisman15/donation/models"
)

func TestCreateDonationStartsPending(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	donor := createTestDonor(t, db, user)
	cause := createTestCause(t, db, admin, true)

	w := doRequest(t, server, http.MethodPost, "/api/donations", tokenFor(t, user), map[string]any{
		"causeId":       cause.ID,
		"amount":        100,
		"method":        "credit_card",
		"gateway":       "stripe",
		"transactionId": "TX-PEND-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", w.Code, w.Body.String())
	}

	var created models.Donation
	decodeBody(t, w, &created)
	if created.Status != models.DonationStatusPending {
		t.Errorf("new donations must be pending, got %q", created.Status)
	}
	if created.Receipt.ReceiptNumber != "" {
		t.Errorf("pending donations must not carry a receipt, got %q", created.Receipt.ReceiptNumber)
	}

	// Nothing rolls up until the donation completes.
	var storedCause models.Cause
	db.First(&storedCause, cause.ID)
	if storedCause.CurrentAmount != 0 {
		t.Errorf("pending donation must not move the cause total, got %f", storedCause.CurrentAmount)
	}
	var storedDonor models.Donor
	db.First(&storedDonor, donor.ID)
	if storedDonor.Statistics.NumberOfDonations != 0 {
		t.Errorf("pending donation must not move donor statistics, got %d", storedDonor.Statistics.NumberOfDonations)
	}
}

func TestCreateDonationValidation(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	createTestDonor(t, db, user)
	inactive := createTestCause(t, db, admin, false)
	active := createTestCause(t, db, admin, true)
	token := tokenFor(t, user)

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"inactive cause", map[string]any{
			"causeId": inactive.ID, "amount": 10, "method": "credit_card",
			"gateway": "stripe", "transactionId": "TX-V-1",
		}, http.StatusBadRequest},
		{"zero amount", map[string]any{
			"causeId": active.ID, "amount": 0, "method": "credit_card",
			"gateway": "stripe", "transactionId": "TX-V-2",
		}, http.StatusBadRequest},
		{"missing transaction id", map[string]any{
			"causeId": active.ID, "amount": 10, "method": "credit_card", "gateway": "stripe",
		}, http.StatusBadRequest},
		{"unknown gateway", map[string]any{
			"causeId": active.ID, "amount": 10, "method": "credit_card",
			"gateway": "carrier_pigeon", "transactionId": "TX-V-3",
		}, http.StatusBadRequest},
		{"unknown cause", map[string]any{
			"causeId": 9999, "amount": 10, "method": "credit_card",
			"gateway": "stripe", "transactionId": "TX-V-4",
		}, http.StatusNotFound},
	}
	for _, tc := range cases {
		w := doRequest(t, server, http.MethodPost, "/api/donations", token, tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: expected %d, got %d (body: %s)", tc.name, tc.want, w.Code, w.Body.String())
		}
	}

	var count int64
	db.Model(&models.Donation{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected donations must not be stored, found %d", count)
	}
}

func TestCreateDonationRequiresDonorProfile(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	cause := createTestCause(t, db, admin, true)

	w := doRequest(t, server, http.MethodPost, "/api/donations", tokenFor(t, admin), map[string]any{
		"causeId":       cause.ID,
		"amount":        10,
		"method":        "credit_card",
		"gateway":       "stripe",
		"transactionId": "TX-NOPROFILE",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a donor profile, got %d (body: %s)", w.Code, w.Body.String())
	}
}

func TestCreateDonationRejectsDuplicateTransactionId(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	donor := createTestDonor(t, db, user)
	cause := createTestCause(t, db, admin, true)
	createTestDonation(t, db, donor, cause, models.DonationStatusPending, "TX-DUP-1")

	w := doRequest(t, server, http.MethodPost, "/api/donations", tokenFor(t, user), map[string]any{
		"causeId":       cause.ID,
		"amount":        10,
		"method":        "credit_card",
		"gateway":       "stripe",
		"transactionId": "TX-DUP-1",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate transaction, got %d (body: %s)", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Donation{}).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 donation, found %d", count)
	}
}

func TestCompletionStampsReceiptExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	donor := createTestDonor(t, db, user)
	cause := createTestCause(t, db, admin, true)
	donation := createTestDonation(t, db, donor, cause, models.DonationStatusPending, "TX-ONCE-1")
	token := tokenFor(t, admin)

	w := doRequest(t, server, http.MethodPatch, "/api/donations/"+itoa(donation.ID)+"/status", token,
		map[string]any{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	var completed models.Donation
	db.First(&completed, donation.ID)
	if completed.Receipt.ReceiptNumber == "" {
		t.Fatal("completion must stamp a receipt number")
	}
	if completed.Receipt.TaxDeductibleAmount != completed.Amount {
		t.Errorf("deductible amount must match the donation, got %f", completed.Receipt.TaxDeductibleAmount)
	}
	firstReceipt := completed.Receipt.ReceiptNumber

	var storedCause models.Cause
	db.First(&storedCause, cause.ID)
	if storedCause.CurrentAmount != donation.Amount {
		t.Errorf("cause total must move on completion, got %f", storedCause.CurrentAmount)
	}
	var storedDonor models.Donor
	db.First(&storedDonor, donor.ID)
	if storedDonor.Statistics.TotalDonated != donation.Amount {
		t.Errorf("donor total must move on completion, got %f", storedDonor.Statistics.TotalDonated)
	}
	if storedDonor.Statistics.FirstDonationDate == nil || storedDonor.Statistics.LastDonationDate == nil {
		t.Error("donation dates must be set on completion")
	}

	// A refund and a second completion must not restamp the receipt or
	// double-count the rollups.
	w = doRequest(t, server, http.MethodPatch, "/api/donations/"+itoa(donation.ID)+"/status", token,
		map[string]any{"status": "refunded"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on refund, got %d", w.Code)
	}
	w = doRequest(t, server, http.MethodPatch, "/api/donations/"+itoa(donation.ID)+"/status", token,
		map[string]any{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on re-completion, got %d", w.Code)
	}

	db.First(&completed, donation.ID)
	if completed.Receipt.ReceiptNumber != firstReceipt {
		t.Errorf("receipt must survive status churn: %q became %q", firstReceipt, completed.Receipt.ReceiptNumber)
	}
	db.First(&storedCause, cause.ID)
	if storedCause.CurrentAmount != donation.Amount {
		t.Errorf("cause total must not double-count, got %f", storedCause.CurrentAmount)
	}
	db.First(&storedDonor, donor.ID)
	if storedDonor.Statistics.NumberOfDonations != 1 {
		t.Errorf("donation count must not double-count, got %d", storedDonor.Statistics.NumberOfDonations)
	}
}

func TestUpdateDonationStatusRejectsUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	donor := createTestDonor(t, db, user)
	cause := createTestCause(t, db, admin, true)
	donation := createTestDonation(t, db, donor, cause, models.DonationStatusPending, "TX-BAD-1")

	w := doRequest(t, server, http.MethodPatch, "/api/donations/"+itoa(donation.ID)+"/status", tokenFor(t, admin),
		map[string]any{"status": "paid"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}

	var stored models.Donation
	db.First(&stored, donation.ID)
	if stored.Status != models.DonationStatusPending {
		t.Errorf("status must be unchanged after rejected update, got %q", stored.Status)
	}
}

func TestUpdateDonationStatusRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	donor := createTestDonor(t, db, user)
	cause := createTestCause(t, db, admin, true)
	donation := createTestDonation(t, db, donor, cause, models.DonationStatusPending, "TX-ROLE-1")

	w := doRequest(t, server, http.MethodPatch, "/api/donations/"+itoa(donation.ID)+"/status", tokenFor(t, user),
		map[string]any{"status": "completed"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for donor, got %d", w.Code)
	}
}

func TestGetDonationsScopedByRole(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	alice := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	bob := createTestUser(t, db, "Bob", "bob@example.com", models.RoleDonor)
	aliceDonor := createTestDonor(t, db, alice)
	bobDonor := createTestDonor(t, db, bob)
	cause := createTestCause(t, db, admin, true)
	createTestDonation(t, db, aliceDonor, cause, models.DonationStatusPending, "TX-SCOPE-A")
	createTestDonation(t, db, bobDonor, cause, models.DonationStatusPending, "TX-SCOPE-B")

	w := doRequest(t, server, http.MethodGet, "/api/donations", tokenFor(t, alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}
	var own []models.Donation
	decodeBody(t, w, &own)
	if len(own) != 1 {
		t.Fatalf("donor must only see their own donations, got %d", len(own))
	}
	if own[0].DonorID != int(aliceDonor.ID) {
		t.Errorf("expected donor %d, got %d", aliceDonor.ID, own[0].DonorID)
	}

	w = doRequest(t, server, http.MethodGet, "/api/donations", tokenFor(t, admin), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
	var all []models.Donation
	decodeBody(t, w, &all)
	if len(all) != 2 {
		t.Fatalf("admin must see every donation, got %d", len(all))
	}
}

func TestGetDonationOwnership(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	alice := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	bob := createTestUser(t, db, "Bob", "bob@example.com", models.RoleDonor)
	aliceDonor := createTestDonor(t, db, alice)
	createTestDonor(t, db, bob)
	cause := createTestCause(t, db, admin, true)
	donation := createTestDonation(t, db, aliceDonor, cause, models.DonationStatusPending, "TX-OWN-1")

	w := doRequest(t, server, http.MethodGet, "/api/donations/"+itoa(donation.ID), tokenFor(t, bob), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another donor, got %d", w.Code)
	}

	w = doRequest(t, server, http.MethodGet, "/api/donations/"+itoa(donation.ID), tokenFor(t, alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner must read their donation, got %d", w.Code)
	}
	w = doRequest(t, server, http.MethodGet, "/api/donations/"+itoa(donation.ID), tokenFor(t, admin), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin must read any donation, got %d", w.Code)
	}
}

func TestGatewayWebhookCompletesDonation(t *testing.T) {
	db := setupTestDB(t)
	server := setupRouter()
	admin := createTestUser(t, db, "Boss", "boss@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "Alice", "alice@example.com", models.RoleDonor)
	donor := createTestDonor(t, db, user)
	cause := createTestCause(t, db, admin, true)
	donation := createTestDonation(t, db, donor, cause, models.DonationStatusPending, "TX-HOOK-1")

	w := doRequest(t, server, http.MethodPost, "/api/donations/webhook", "", map[string]any{
		"transactionId": "TX-HOOK-1",
		"status":        "COMPLETED",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["received"] != true {
		t.Error("webhook must acknowledge receipt")
	}
	if resp["status"] != models.DonationStatusCompleted {
		t.Errorf("expected completed, got %v", resp["status"])
	}

	var stored models.Donation
	db.First(&stored, donation.ID)
	if stored.Status != models.DonationStatusCompleted {
		t.Errorf("expected completed, got %q", stored.Status)
	}
	if stored.Receipt.ReceiptNumber == "" {
		t.Error("webhook completion must stamp a receipt")
	}
	var storedCause models.Cause
	db.First(&storedCause, cause.ID)
	if storedCause.CurrentAmount != donation.Amount {
		t.Errorf("cause total must move on webhook completion, got %f", storedCause.CurrentAmount)
	}
}

func TestGatewayWebhookValidation(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	w := doRequest(t, server, http.MethodPost, "/api/donations/webhook", "", map[string]any{
		"status": "completed",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing transactionId, got %d", w.Code)
	}

	w = doRequest(t, server, http.MethodGet, "/api/donations/webhook?transactionId=TX-MISSING&status=completed", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown transaction, got %d", w.Code)
	}
}

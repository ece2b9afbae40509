package appstore

import (
	"strconv"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain/user"
)

type verifyRequest struct {
	ReceiptData            string `json:"receipt-data"`
	Password               string `json:"password"`
	ExcludeOldTransactions bool   `json:"exclude-old-transactions"`
}

type receiptResponse struct {
	Status      int    `json:"status"`
	Environment string `json:"environment,omitempty"`
	Receipt     *struct {
		BundleID string        `json:"bundle_id"`
		InApp    []transaction `json:"in_app"`
	} `json:"receipt,omitempty"`
	LatestReceiptInfo  []transaction    `json:"latest_receipt_info,omitempty"`
	PendingRenewalInfo []pendingRenewal `json:"pending_renewal_info,omitempty"`
}

type transaction struct {
	ProductID             string `json:"product_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	TransactionID         string `json:"transaction_id"`
	PurchaseDateMS        string `json:"purchase_date_ms"`
	ExpiresDateMS         string `json:"expires_date_ms,omitempty"`
	IsTrialPeriod         string `json:"is_trial_period,omitempty"`
}

func (t transaction) expiresMS() int64 {
	ms, err := strconv.ParseInt(t.ExpiresDateMS, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

type pendingRenewal struct {
	ProductID              string `json:"product_id"`
	AutoRenewStatus        string `json:"auto_renew_status"`
	IsInBillingRetryPeriod string `json:"is_in_billing_retry_period,omitempty"`
}

// parseReceipt maps a verifyReceipt response onto a Subscription as of now.
func parseReceipt(resp receiptResponse, now time.Time) user.Subscription {
	if resp.Status != statusOK {
		return invalid(StatusMessage(resp.Status))
	}

	txs := resp.LatestReceiptInfo
	if len(txs) == 0 && resp.Receipt != nil {
		txs = resp.Receipt.InApp
	}

	var latest *transaction
	for i := range txs {
		if !user.IsSubscriptionProduct(txs[i].ProductID) {
			continue
		}
		if latest == nil || txs[i].expiresMS() > latest.expiresMS() {
			latest = &txs[i]
		}
	}
	if latest == nil {
		return user.Subscription{Valid: true, Status: user.StatusNone}
	}

	expiresAt := time.UnixMilli(latest.expiresMS()).UTC()
	status := user.StatusExpired
	switch {
	case expiresAt.After(now):
		status = user.StatusActive
	case inBillingRetry(resp.PendingRenewalInfo, latest.ProductID):
		status = user.StatusGracePeriod
	}

	return user.Subscription{
		Valid:                 true,
		Status:                status,
		ExpiresAt:             &expiresAt,
		ProductID:             latest.ProductID,
		OriginalTransactionID: latest.OriginalTransactionID,
	}
}

func inBillingRetry(renewals []pendingRenewal, productID string) bool {
	for _, r := range renewals {
		if r.ProductID == productID {
			return r.IsInBillingRetryPeriod == "1"
		}
	}
	return false
}

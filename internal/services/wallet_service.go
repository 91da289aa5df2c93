package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tirelire/internal/config"
	apperrors "tirelire/internal/errors"
	"tirelire/internal/logger"
	"tirelire/internal/models"
	"tirelire/internal/money"
	"tirelire/internal/pagination"
	"tirelire/internal/uuid"
	"tirelire/internal/validator"
)

// walletService handles the mobile-money wallet ledger. Every balance
// change goes through a per-wallet lock and lands as one append-only
// entry recorded atomically with the balance update.
type walletService struct {
	db    *gorm.DB
	locks *lockTable
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB) WalletServicer {
	return &walletService{db: db, locks: aggregateLocks}
}

// GetOrCreateWallet returns the user's wallet, creating it on first use.
func (s *walletService) GetOrCreateWallet(userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	wallet = models.Wallet{
		UserID:   userID,
		Balance:  decimal.Zero,
		Currency: config.Get().DefaultCurrency,
		IsActive: true,
	}
	if err := s.db.Create(&wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// AddPaymentMethod registers a phone number with a provider for the
// user. The first method becomes the default.
func (s *walletService) AddPaymentMethod(userID, providerName, phoneNumber, accountName string) (*models.UserPaymentMethod, error) {
	if err := validator.Var(phoneNumber, "required,phone"); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid phone number")
	}

	var provider models.PaymentProvider
	err := s.db.Where("name = ? AND is_active = ?", providerName, true).First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProviderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing int64
	err = s.db.Model(&models.UserPaymentMethod{}).Where("user_id = ?", userID).Count(&existing).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	method := &models.UserPaymentMethod{
		UserID:      userID,
		ProviderID:  provider.ID,
		PhoneNumber: phoneNumber,
		AccountName: accountName,
		IsDefault:   existing == 0,
	}
	if err := s.db.Create(method).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	method.Provider = &provider
	return method, nil
}

// newReference builds a unique payment reference.
func newReference(paymentType models.PaymentType) string {
	prefix := map[models.PaymentType]string{
		models.PaymentTypeDeposit:  "DEP",
		models.PaymentTypeWithdraw: "WDR",
		models.PaymentTypeTransfer: "TRF",
	}[paymentType]
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(strings.ReplaceAll(uuid.New(), "-", "")[:20]))
}

// methodForUser loads a payment method the user owns, with its provider.
func (s *walletService) methodForUser(userID, paymentMethodID string) (*models.UserPaymentMethod, error) {
	var method models.UserPaymentMethod
	err := s.db.Preload("Provider").
		Where("id = ? AND user_id = ?", paymentMethodID, userID).
		First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentMethodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if method.Provider == nil || !method.Provider.IsActive {
		return nil, apperrors.ErrProviderNotFound
	}
	return &method, nil
}

func checkAmountRange(amount decimal.Decimal, provider *models.PaymentProvider) error {
	if amount.LessThan(provider.MinAmount) || amount.GreaterThan(provider.MaxAmount) {
		return apperrors.WithMessage(apperrors.ErrAmountOutOfRange,
			fmt.Sprintf("amount must be between %s and %s", money.Format(provider.MinAmount), money.Format(provider.MaxAmount)))
	}
	return nil
}

// Deposit initiates a pending deposit through one of the user's payment
// methods. The payer is charged amount plus fee; the wallet is credited
// the amount once the gateway confirms.
func (s *walletService) Deposit(userID, paymentMethodID string, amount decimal.Decimal) (*models.Payment, error) {
	amount, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	method, err := s.methodForUser(userID, paymentMethodID)
	if err != nil {
		return nil, err
	}
	if err := checkAmountRange(amount, method.Provider); err != nil {
		return nil, err
	}
	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return nil, err
	}
	if !wallet.IsActive {
		return nil, apperrors.ErrWalletInactive
	}

	fee := money.Fee(amount, method.Provider.FeePercentage, method.Provider.FeeFixed)
	payment := &models.Payment{
		Reference:       newReference(models.PaymentTypeDeposit),
		UserID:          userID,
		ProviderID:      method.ProviderID,
		PaymentMethodID: &method.ID,
		Type:            models.PaymentTypeDeposit,
		Status:          models.PaymentStatusPending,
		Amount:          amount,
		Fee:             fee,
		TotalAmount:     amount.Add(fee),
		Currency:        wallet.Currency,
		Description:     fmt.Sprintf("Deposit via %s", method.Provider.DisplayName),
		InitiatedAt:     time.Now(),
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payment, nil
}

// Withdraw initiates a pending withdrawal. The balance must cover the
// amount plus fee now and again when the gateway confirms; the net paid
// out is amount minus fee.
func (s *walletService) Withdraw(userID, paymentMethodID string, amount decimal.Decimal) (*models.Payment, error) {
	amount, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	method, err := s.methodForUser(userID, paymentMethodID)
	if err != nil {
		return nil, err
	}
	if err := checkAmountRange(amount, method.Provider); err != nil {
		return nil, err
	}
	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return nil, err
	}
	if !wallet.IsActive {
		return nil, apperrors.ErrWalletInactive
	}

	fee := money.Fee(amount, method.Provider.FeePercentage, method.Provider.FeeFixed)
	if wallet.Balance.LessThan(amount.Add(fee)) {
		return nil, apperrors.ErrInsufficientFunds
	}

	payment := &models.Payment{
		Reference:       newReference(models.PaymentTypeWithdraw),
		UserID:          userID,
		ProviderID:      method.ProviderID,
		PaymentMethodID: &method.ID,
		Type:            models.PaymentTypeWithdraw,
		Status:          models.PaymentStatusPending,
		Amount:          amount,
		Fee:             fee,
		TotalAmount:     amount.Sub(fee),
		Currency:        wallet.Currency,
		Description:     fmt.Sprintf("Withdrawal via %s", method.Provider.DisplayName),
		InitiatedAt:     time.Now(),
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payment, nil
}

// defaultProvider returns the active provider used to price transfers.
func (s *walletService) defaultProvider() (*models.PaymentProvider, error) {
	var provider models.PaymentProvider
	err := s.db.Where("is_active = ?", true).Order("name ASC").First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProviderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &provider, nil
}

// applyEntry mutates a wallet balance and records the matching entry
// inside tx. The caller must hold the wallet's lock.
func applyEntry(tx *gorm.DB, wallet *models.Wallet, entryType models.EntryType, amount decimal.Decimal, paymentID, description string) error {
	if entryType == models.EntryTypeDebit {
		wallet.Balance = wallet.Balance.Sub(amount)
	} else {
		wallet.Balance = wallet.Balance.Add(amount)
	}
	if err := tx.Model(wallet).Update("balance", wallet.Balance).Error; err != nil {
		return err
	}
	entry := &models.WalletEntry{
		WalletID:     wallet.ID,
		Type:         entryType,
		Amount:       amount,
		BalanceAfter: wallet.Balance,
		PaymentID:    &paymentID,
		Description:  description,
	}
	return tx.Create(entry).Error
}

// Transfer moves money between two user wallets synchronously. The
// sender pays the amount plus the default provider's fee; the recipient
// receives the amount. Both wallet locks are taken in a stable order so
// opposing transfers cannot deadlock.
func (s *walletService) Transfer(fromUserID, toUserID string, amount decimal.Decimal) (*models.Payment, *models.Payment, error) {
	amount, err := parseAmount(amount)
	if err != nil {
		return nil, nil, err
	}
	if fromUserID == toUserID {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "cannot transfer to your own wallet")
	}

	provider, err := s.defaultProvider()
	if err != nil {
		return nil, nil, err
	}
	if err := checkAmountRange(amount, provider); err != nil {
		return nil, nil, err
	}

	source, err := s.GetOrCreateWallet(fromUserID)
	if err != nil {
		return nil, nil, err
	}
	destination, err := s.GetOrCreateWallet(toUserID)
	if err != nil {
		return nil, nil, err
	}
	if !source.IsActive || !destination.IsActive {
		return nil, nil, apperrors.ErrWalletInactive
	}

	release, err := s.locks.acquireAll([]string{"wallet:" + source.ID, "wallet:" + destination.ID}, config.Get().LockWaitTimeout)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	// Re-read under the lock; a concurrent operation may have moved
	// the balance since the first load.
	if err := s.db.First(source, "id = ?", source.ID).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	fee := money.Fee(amount, provider.FeePercentage, provider.FeeFixed)
	charged := amount.Add(fee)
	if source.Balance.LessThan(charged) {
		return nil, nil, apperrors.ErrInsufficientFunds
	}

	now := time.Now()
	outgoing := &models.Payment{
		Reference:            newReference(models.PaymentTypeTransfer),
		UserID:               fromUserID,
		ProviderID:           provider.ID,
		CounterpartyWalletID: &destination.ID,
		Type:                 models.PaymentTypeTransfer,
		Status:               models.PaymentStatusCompleted,
		Amount:               amount,
		Fee:                  fee,
		TotalAmount:          charged,
		Currency:             source.Currency,
		Description:          "Transfer sent",
		InitiatedAt:          now,
		CompletedAt:          &now,
	}
	incoming := &models.Payment{
		Reference:            newReference(models.PaymentTypeTransfer),
		UserID:               toUserID,
		ProviderID:           provider.ID,
		CounterpartyWalletID: &source.ID,
		Type:                 models.PaymentTypeTransfer,
		Status:               models.PaymentStatusCompleted,
		Amount:               amount,
		Fee:                  decimal.Zero,
		TotalAmount:          amount,
		Currency:             destination.Currency,
		Description:          "Transfer received",
		InitiatedAt:          now,
		CompletedAt:          &now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(outgoing).Error; err != nil {
			return err
		}
		if err := tx.Create(incoming).Error; err != nil {
			return err
		}
		if err := tx.First(destination, "id = ?", destination.ID).Error; err != nil {
			return err
		}
		if err := applyEntry(tx, source, models.EntryTypeDebit, charged, outgoing.ID, outgoing.Description); err != nil {
			return err
		}
		return applyEntry(tx, destination, models.EntryTypeCredit, amount, incoming.ID, incoming.Description)
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return outgoing, incoming, nil
}

// HandleGatewayResult finalizes a pending payment from the gateway
// callback. Unknown references and already-final payments are no-ops so
// replayed callbacks cannot double-apply.
func (s *walletService) HandleGatewayResult(reference string, success bool, providerTransactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Where("reference = ?", reference).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Warnw("gateway callback for unknown reference", "reference", reference)
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if payment.IsFinal() {
		return &payment, nil
	}

	var wallet models.Wallet
	if err := s.db.Where("user_id = ?", payment.UserID).First(&wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	release, err := s.locks.acquire("wallet:"+wallet.ID, config.Get().LockWaitTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read both rows under the lock.
	if err := s.db.First(&payment, "id = ?", payment.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if payment.IsFinal() {
		return &payment, nil
	}
	if err := s.db.First(&wallet, "id = ?", wallet.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	if !success {
		updates := map[string]interface{}{
			"status":             models.PaymentStatusFailed,
			"error_message":      "rejected by provider",
			"provider_reference": providerTransactionID,
			"completed_at":       now,
		}
		if err := s.db.Model(&payment).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &payment, nil
	}

	switch payment.Type {
	case models.PaymentTypeDeposit:
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := applyEntry(tx, &wallet, models.EntryTypeCredit, payment.Amount, payment.ID, payment.Description); err != nil {
				return err
			}
			return tx.Model(&payment).Updates(map[string]interface{}{
				"status":             models.PaymentStatusCompleted,
				"provider_reference": providerTransactionID,
				"completed_at":       now,
			}).Error
		})
	case models.PaymentTypeWithdraw:
		debited := payment.Amount.Add(payment.Fee)
		if wallet.Balance.LessThan(debited) {
			updates := map[string]interface{}{
				"status":             models.PaymentStatusFailed,
				"error_message":      "insufficient funds at settlement",
				"provider_reference": providerTransactionID,
				"completed_at":       now,
			}
			if err := s.db.Model(&payment).Updates(updates).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return &payment, nil
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := applyEntry(tx, &wallet, models.EntryTypeDebit, debited, payment.ID, payment.Description); err != nil {
				return err
			}
			return tx.Model(&payment).Updates(map[string]interface{}{
				"status":             models.PaymentStatusCompleted,
				"provider_reference": providerTransactionID,
				"completed_at":       now,
			}).Error
		})
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "transfers settle synchronously")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.First(&payment, "id = ?", payment.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payment, nil
}

// Entries returns the wallet's history, newest first.
func (s *walletService) Entries(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.WalletEntry], error) {
	page.Defaults()

	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.WalletEntry{}).Where("wallet_id = ?", wallet.ID)
	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.WalletEntry
	err = query.Scopes(pagination.Paginate(page)).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPaymentByReference looks up a payment by its public reference.
func (s *walletService) GetPaymentByReference(reference string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Preload("Provider").Where("reference = ?", reference).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payment, nil
}

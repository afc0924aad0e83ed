// Package vnpay builds signed VNPay payment URLs and verifies gateway callbacks.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ResponseCodeSuccess is the vnp_ResponseCode of a successful payment.
const ResponseCodeSuccess = "00"

var (
	// ErrInvalidSignature is returned when a callback's secure hash does not match.
	ErrInvalidSignature = errors.New("invalid vnpay signature")

	// ErrMissingParam is returned when a callback lacks a required parameter.
	ErrMissingParam = errors.New("missing vnpay parameter")
)

// Config holds merchant credentials.
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Version    string
	Locale     string
}

// PaymentRequest describes one payment to open at the gateway.
type PaymentRequest struct {
	TxnRef    string
	Amount    float64 // In VND
	OrderInfo string
	ClientIP  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Result is a verified gateway callback.
type Result struct {
	TxnRef       string
	Amount       float64
	ResponseCode string
	TxnStatus    string
	GatewayTxnNo string
	BankCode     string
	PayDate      string
}

// Success reports whether the gateway accepted the payment.
func (r *Result) Success() bool {
	return r.ResponseCode == ResponseCodeSuccess && (r.TxnStatus == "" || r.TxnStatus == ResponseCodeSuccess)
}

// Gateway signs requests and verifies callbacks for one merchant.
type Gateway struct {
	cfg Config
	loc *time.Location
}

// New creates a new Gateway. Timestamps are rendered in Asia/Ho_Chi_Minh.
func New(cfg Config) *Gateway {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}
	return &Gateway{cfg: cfg, loc: loc}
}

// BuildPaymentURL returns the redirect URL for req.
func (g *Gateway) BuildPaymentURL(req PaymentRequest) (string, error) {
	if req.TxnRef == "" || req.Amount <= 0 {
		return "", fmt.Errorf("vnpay: txn ref and positive amount required")
	}

	params := url.Values{}
	params.Set("vnp_Version", g.cfg.Version)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", g.cfg.TmnCode)
	// Amount is sent in hundredths of a dong.
	params.Set("vnp_Amount", strconv.FormatInt(int64(math.Round(req.Amount*100)), 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", g.cfg.Locale)
	params.Set("vnp_ReturnUrl", g.cfg.ReturnURL)
	params.Set("vnp_IpAddr", req.ClientIP)
	params.Set("vnp_CreateDate", req.CreatedAt.In(g.loc).Format("20060102150405"))
	if !req.ExpiresAt.IsZero() {
		params.Set("vnp_ExpireDate", req.ExpiresAt.In(g.loc).Format("20060102150405"))
	}

	query := canonicalQuery(params)
	return g.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + g.sign(query), nil
}

// VerifyCallback checks the secure hash of a return/IPN callback and
// extracts the payment outcome.
func (g *Gateway) VerifyCallback(params url.Values) (*Result, error) {
	received := params.Get("vnp_SecureHash")
	if received == "" {
		return nil, fmt.Errorf("%w: vnp_SecureHash", ErrMissingParam)
	}

	signed := url.Values{}
	for key, values := range params {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" || !strings.HasPrefix(key, "vnp_") {
			continue
		}
		signed[key] = values
	}

	expected := g.sign(canonicalQuery(signed))
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	txnRef := params.Get("vnp_TxnRef")
	if txnRef == "" {
		return nil, fmt.Errorf("%w: vnp_TxnRef", ErrMissingParam)
	}
	rawAmount, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: vnp_Amount", ErrMissingParam)
	}

	return &Result{
		TxnRef:       txnRef,
		Amount:       float64(rawAmount) / 100,
		ResponseCode: params.Get("vnp_ResponseCode"),
		TxnStatus:    params.Get("vnp_TransactionStatus"),
		GatewayTxnNo: params.Get("vnp_TransactionNo"),
		BankCode:     params.Get("vnp_BankCode"),
		PayDate:      params.Get("vnp_PayDate"),
	}, nil
}

func (g *Gateway) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery encodes params sorted by key, skipping empty values.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if params.Get(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(params.Get(key)))
	}
	return strings.Join(parts, "&")
}

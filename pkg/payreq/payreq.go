// Package payreq implements bitcoinz: payment request URIs.
//
// The format follows BIP 21 with the multi-recipient extension of ZIP 321:
//
//	bitcoinz:<address>?amount=<amount>&memo=<memo>&message=<message>
//	bitcoinz:?address=<a0>&amount=<v0>&address.1=<a1>&amount.1=<v1>
//
// Amounts are decimal BTCZ with at most 8 fractional digits and are parsed
// exactly into zatoshis. Memos are base64url without padding.
package payreq

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Scheme is the URI scheme of BitcoinZ payment requests.
const Scheme = "bitcoinz"

const (
	coin        = 100_000_000
	maxDecimals = 8
	maxIndex    = 9999
	maxMemoSize = 512
)

// PaymentRequest is a parsed payment request.
type PaymentRequest struct {
	Payments []Payment
}

// Payment is a single recipient of a request.
type Payment struct {
	Address string
	Amount  *uint64 // zatoshis; nil leaves the amount to the payer
	Memo    []byte  // only valid for shielded recipients
	Label   string
	Message string
}

// Total returns the sum of all specified amounts.
func (r *PaymentRequest) Total() (uint64, error) {
	var total uint64
	for i, p := range r.Payments {
		if p.Amount == nil {
			continue
		}
		if total+*p.Amount < total {
			return 0, fmt.Errorf("payment %d: total overflows", i)
		}
		total += *p.Amount
	}
	return total, nil
}

// Parse parses a bitcoinz: URI.
func Parse(uri string) (*PaymentRequest, error) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return nil, fmt.Errorf("payment request must use the %s: scheme", Scheme)
	}

	base, query, _ := strings.Cut(rest, "?")
	if base != "" {
		var err error
		if base, err = url.PathUnescape(base); err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	byIndex := make(map[int]*Payment)
	get := func(idx int) *Payment {
		p, ok := byIndex[idx]
		if !ok {
			p = &Payment{}
			byIndex[idx] = p
		}
		return p
	}
	if base != "" {
		get(0).Address = base
	}

	for key, vals := range values {
		if len(vals) != 1 {
			return nil, fmt.Errorf("parameter %q appears %d times", key, len(vals))
		}
		name, idx, err := splitParam(key)
		if err != nil {
			return nil, err
		}
		if !knownParams[name] {
			if strings.HasPrefix(name, "req-") {
				return nil, fmt.Errorf("unsupported required parameter %q", key)
			}
			continue
		}
		if err := setParam(get(idx), name, vals[0], base != "" && idx == 0); err != nil {
			return nil, fmt.Errorf("payment %d: %w", idx, err)
		}
	}

	if len(byIndex) == 0 {
		return nil, fmt.Errorf("no payments found in URI")
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	req := &PaymentRequest{Payments: make([]Payment, 0, len(indices))}
	for _, idx := range indices {
		p := byIndex[idx]
		if p.Address == "" {
			return nil, fmt.Errorf("payment %d missing address", idx)
		}
		req.Payments = append(req.Payments, *p)
	}
	return req, nil
}

var knownParams = map[string]bool{
	"address": true,
	"amount":  true,
	"memo":    true,
	"label":   true,
	"message": true,
}

// splitParam splits "name.N" into its name and index. A bare name has
// index 0.
func splitParam(key string) (string, int, error) {
	name, suffix, ok := strings.Cut(key, ".")
	if !ok {
		return name, 0, nil
	}
	if suffix == "" || suffix[0] == '0' {
		return "", 0, fmt.Errorf("parameter %q has an invalid index", key)
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 1 || idx > maxIndex {
		return "", 0, fmt.Errorf("parameter %q has an invalid index", key)
	}
	return name, idx, nil
}

func setParam(p *Payment, name, value string, hasBase bool) error {
	switch name {
	case "address":
		if hasBase {
			return fmt.Errorf("address given twice")
		}
		p.Address = value
	case "amount":
		v, err := ParseAmount(value)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		p.Amount = &v
	case "memo":
		m, err := base64.RawURLEncoding.DecodeString(value)
		if err != nil {
			return fmt.Errorf("invalid memo: %w", err)
		}
		if len(m) > maxMemoSize {
			return fmt.Errorf("memo is %d bytes, limit is %d", len(m), maxMemoSize)
		}
		p.Memo = m
	case "label":
		p.Label = value
	case "message":
		p.Message = value
	}
	return nil
}

// ParseAmount parses a decimal BTCZ amount into zatoshis.
func ParseAmount(s string) (uint64, error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && frac == "") {
		return 0, fmt.Errorf("%q is not a decimal amount", s)
	}
	if len(frac) > maxDecimals {
		return 0, fmt.Errorf("%q has more than %d decimal places", s, maxDecimals)
	}
	for _, c := range whole + frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a decimal amount", s)
		}
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil || w > ^uint64(0)/coin {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	var f uint64
	if frac != "" {
		f, _ = strconv.ParseUint(frac+strings.Repeat("0", maxDecimals-len(frac)), 10, 64)
	}
	total := w*coin + f
	if total < w*coin {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return total, nil
}

// FormatAmount formats zatoshis as a decimal BTCZ amount without trailing
// zeros.
func FormatAmount(zat uint64) string {
	s := fmt.Sprintf("%d.%08d", zat/coin, zat%coin)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Encode returns the URI for the request. A single payment uses the
// address-in-path form.
func (r *PaymentRequest) Encode() string {
	if len(r.Payments) == 1 {
		p := r.Payments[0]
		uri := Scheme + ":" + p.Address
		if q := p.values(""); len(q) > 0 {
			uri += "?" + q.Encode()
		}
		return uri
	}

	q := url.Values{}
	for i, p := range r.Payments {
		suffix := ""
		if i > 0 {
			suffix = "." + strconv.Itoa(i)
		}
		q.Set("address"+suffix, p.Address)
		for k, v := range p.values(suffix) {
			q[k] = v
		}
	}
	return Scheme + ":?" + q.Encode()
}

func (p *Payment) values(suffix string) url.Values {
	q := url.Values{}
	if p.Amount != nil {
		q.Set("amount"+suffix, FormatAmount(*p.Amount))
	}
	if len(p.Memo) > 0 {
		q.Set("memo"+suffix, base64.RawURLEncoding.EncodeToString(p.Memo))
	}
	if p.Label != "" {
		q.Set("label"+suffix, p.Label)
	}
	if p.Message != "" {
		q.Set("message"+suffix, p.Message)
	}
	return q
}

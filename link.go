package depot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"

	linkService       = "depot"
	linkSignedHeaders = "host"
)

// ErrInvalidLink is returned by LinkSigner.Verify for any link that is
// malformed, expired or carries a wrong signature.
var ErrInvalidLink = errors.New("invalid link")

// LinkSigner issues and verifies time-bounded download links for blobs that
// are served by depot itself (the filesystem object store). Links use the
// query-string form of AWS Signature V4 so they have the same shape as S3
// presigned URLs.
type LinkSigner struct {
	AccessKey string
	SecretKey string
	Region    string

	now func() time.Time
}

// NewLinkSigner creates a signer. The access key is embedded in every link,
// the secret key never leaves the process.
func NewLinkSigner(accessKey, secretKey, region string) *LinkSigner {
	return &LinkSigner{
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
		now:       time.Now,
	}
}

// Presign returns a GET link for path under baseURL valid for ttl, along
// with the instant it expires.
//
// Example:
//
//	signer := depot.NewLinkSigner("depot", secret, "us-east-1")
//	link, expiresAt, err := signer.Presign("http://localhost:5708", "/blobs/a.jpg", time.Hour)
func (s *LinkSigner) Presign(baseURL, path string, ttl time.Duration) (string, time.Time, error) {
	expires := int(ttl / time.Second)
	if expires <= 0 || expires > MaxExpiresSeconds {
		return "", time.Time{}, fmt.Errorf("presign: ttl must be between 1s and %ds: %w", MaxExpiresSeconds, ErrInvalidArgument)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign: parse base url: %w", err)
	}
	if base.Host == "" {
		return "", time.Time{}, fmt.Errorf("presign: base url %q has no host: %w", baseURL, ErrInvalidArgument)
	}

	requestTime := s.now().UTC()
	dateStamp := requestTime.Format(DateFormat)

	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + path
	u.RawPath = ""

	query := url.Values{}
	query.Set("X-Amz-Algorithm", SignatureAlgorithm)
	query.Set("X-Amz-Credential", fmt.Sprintf("%s/%s/%s/%s/aws4_request", s.AccessKey, dateStamp, s.Region, linkService))
	query.Set("X-Amz-Date", requestTime.Format(DateTimeFormat))
	query.Set("X-Amz-Expires", strconv.Itoa(expires))
	query.Set("X-Amz-SignedHeaders", linkSignedHeaders)

	headers := http.Header{}
	headers.Set("Host", u.Host)

	signature := calculateSignature(s.SecretKey, http.MethodGet, u.EscapedPath(), query, headers,
		requestTime, dateStamp, s.Region, linkService, linkSignedHeaders)
	query.Set("X-Amz-Signature", signature)

	u.RawQuery = query.Encode()

	return u.String(), requestTime.Add(time.Duration(expires) * time.Second), nil
}

// Verify checks a link produced by Presign. headers must carry the request
// Host, since the host header is signed.
func (s *LinkSigner) Verify(method, path string, query url.Values, headers http.Header) error {
	params, err := extractParams(query)
	if err != nil {
		return err
	}

	if err := s.validateParams(params); err != nil {
		return err
	}

	if params.accessKey != s.AccessKey {
		return fmt.Errorf("unknown access key: %w", ErrInvalidLink)
	}

	expectedSignature := calculateSignature(
		s.SecretKey,
		method,
		path,
		query,
		headers,
		params.requestTime,
		params.dateStamp,
		params.region,
		params.service,
		params.signedHeaders,
	)

	if !hmac.Equal([]byte(expectedSignature), []byte(params.signature)) {
		return fmt.Errorf("signature mismatch: %w", ErrInvalidLink)
	}

	return nil
}

type signatureParams struct {
	algorithm     string
	accessKey     string
	dateStamp     string
	region        string
	service       string
	requestTime   time.Time
	expires       int
	signedHeaders string
	signature     string
}

func extractParams(query url.Values) (*signatureParams, error) {
	amzAlgorithm := query.Get("X-Amz-Algorithm")
	amzCredential := query.Get("X-Amz-Credential")
	amzDate := query.Get("X-Amz-Date")
	amzExpires := query.Get("X-Amz-Expires")
	amzSignedHeaders := query.Get("X-Amz-SignedHeaders")
	amzSignature := query.Get("X-Amz-Signature")

	if amzAlgorithm == "" || amzCredential == "" || amzDate == "" ||
		amzExpires == "" || amzSignedHeaders == "" || amzSignature == "" {
		return nil, fmt.Errorf("missing required signature parameters: %w", ErrInvalidLink)
	}

	requestTime, err := time.Parse(DateTimeFormat, amzDate)
	if err != nil {
		return nil, fmt.Errorf("invalid X-Amz-Date format: %w", ErrInvalidLink)
	}

	expires, err := strconv.Atoi(amzExpires)
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return nil, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrInvalidLink)
	}

	credParts := strings.Split(amzCredential, "/")
	if len(credParts) != 5 || credParts[4] != "aws4_request" {
		return nil, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrInvalidLink)
	}

	return &signatureParams{
		algorithm:     amzAlgorithm,
		accessKey:     credParts[0],
		dateStamp:     credParts[1],
		region:        credParts[2],
		service:       credParts[3],
		requestTime:   requestTime,
		expires:       expires,
		signedHeaders: amzSignedHeaders,
		signature:     amzSignature,
	}, nil
}

func (s *LinkSigner) validateParams(params *signatureParams) error {
	if params.algorithm != SignatureAlgorithm {
		return fmt.Errorf("invalid algorithm %q: %w", params.algorithm, ErrInvalidLink)
	}

	if s.now().After(params.requestTime.Add(time.Duration(params.expires) * time.Second)) {
		return fmt.Errorf("link expired: %w", ErrInvalidLink)
	}

	if params.dateStamp != params.requestTime.Format(DateFormat) {
		return fmt.Errorf("credential date mismatch: %w", ErrInvalidLink)
	}

	if params.region != s.Region {
		return fmt.Errorf("region mismatch: %w", ErrInvalidLink)
	}

	if params.service != linkService {
		return fmt.Errorf("service mismatch: %w", ErrInvalidLink)
	}

	return nil
}

func calculateSignature(
	secretKey, method, path string,
	query url.Values,
	headers http.Header,
	requestTime time.Time,
	dateStamp, region, service, signedHeaders string,
) string {
	canonicalRequest := buildCanonicalRequest(method, path, query, headers, signedHeaders)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s",
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		credentialScope,
		sha256Hex(canonicalRequest),
	)

	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))

	return hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))
}

func buildCanonicalRequest(method, path string, query url.Values, headers http.Header, signedHeaders string) string {
	params := url.Values{}
	for k, v := range query {
		if k != "X-Amz-Signature" {
			params[k] = v
		}
	}

	headerNames := strings.Split(signedHeaders, ";")
	sort.Strings(headerNames)

	var canonicalHeaders strings.Builder
	for _, name := range headerNames {
		canonicalHeaders.WriteString(name)
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(strings.TrimSpace(headers.Get(name)))
		canonicalHeaders.WriteString("\n")
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		method,
		path,
		params.Encode(),
		canonicalHeaders.String(),
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	)
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

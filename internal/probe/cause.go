package probe

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// Cause maps a transport error to a coarse label used in operational logs:
// "dns_not_found" | "dns_error" | "connection_refused" | "connection_reset" |
// "tls" | "timeout" | "transport".
func Cause(err error) string {
	if err == nil {
		return ""
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		if de.IsNotFound {
			return "dns_not_found"
		}
		if de.IsTimeout {
			return "timeout"
		}
		return "dns_error"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection_refused"
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return "connection_reset"
	}

	var (
		verr  *tls.CertificateVerificationError
		rherr tls.RecordHeaderError
		uaerr x509.UnknownAuthorityError
		hnerr x509.HostnameError
		cierr x509.CertificateInvalidError
	)
	if errors.As(err, &verr) || errors.As(err, &rherr) || errors.As(err, &uaerr) ||
		errors.As(err, &hnerr) || errors.As(err, &cierr) {
		return "tls"
	}
	if isTimeout(err) {
		return "timeout"
	}
	return "transport"
}

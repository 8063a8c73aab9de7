package services

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/dayspark/core/internal/database/models"
)

const (
	connectionTimeout = 10 * time.Second
)

// ConnectionTestResult reports the outcome of a connection test
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// buildAddress builds a host:port address string
func buildAddress(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// TestIMAPConnection verifies the IMAP credentials of a linked account.
// Used when linking an account so bad credentials surface immediately
// instead of at the next brief generation.
func (s *AccountService) TestIMAPConnection(account *models.LinkedAccount) ConnectionTestResult {
	if account.IMAPHost == "" {
		return ConnectionTestResult{Success: false, Message: "Account has no IMAP configuration"}
	}
	password, err := s.GetDecryptedPassword(account)
	if err != nil {
		return ConnectionTestResult{Success: false, Message: "Cannot decrypt stored password"}
	}
	return testIMAPConnectionInternal(buildAddress(account.IMAPHost, account.IMAPPort), account.Username, password, account.UseSSL)
}

// testIMAPConnectionInternal tests an IMAP connection
func testIMAPConnectionInternal(addr, username, password string, useSSL bool) ConnectionTestResult {
	var conn net.Conn
	var err error

	dialer := &net.Dialer{
		Timeout: connectionTimeout,
	}

	if useSSL {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: false,
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}

	if err != nil {
		return ConnectionTestResult{
			Success: false,
			Message: fmt.Sprintf("Failed to connect to IMAP server: %v", err),
		}
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(connectionTimeout))

	// Read server greeting
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return ConnectionTestResult{
			Success: false,
			Message: fmt.Sprintf("Failed to read IMAP greeting: %v", err),
		}
	}

	greeting := string(buf[:n])
	if len(greeting) < 4 || greeting[:4] != "* OK" {
		return ConnectionTestResult{
			Success: false,
			Message: "Invalid IMAP server response",
		}
	}

	loginCmd := fmt.Sprintf("A001 LOGIN %s %s\r\n", username, password)
	_, err = conn.Write([]byte(loginCmd))
	if err != nil {
		return ConnectionTestResult{
			Success: false,
			Message: fmt.Sprintf("Failed to send login command: %v", err),
		}
	}

	conn.SetReadDeadline(time.Now().Add(connectionTimeout))
	n, err = conn.Read(buf)
	if err != nil {
		return ConnectionTestResult{
			Success: false,
			Message: fmt.Sprintf("Failed to read login response: %v", err),
		}
	}

	response := string(buf[:n])
	if len(response) >= 7 && response[:7] == "A001 OK" {
		conn.Write([]byte("A002 LOGOUT\r\n"))
		return ConnectionTestResult{
			Success: true,
			Message: "IMAP connection and authentication successful",
		}
	}

	return ConnectionTestResult{
		Success: false,
		Message: "IMAP authentication failed: " + response,
	}
}

package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// RequestHalalCertification opens the one certificate a batch may ever have.
// The batch must already be slaughtered.
func (l *Ledger) RequestHalalCertification(caller string, batchID uint64) (uint64, error) {
	if _, err := l.authorize(caller, OpRequestCertification); err != nil {
		return 0, l.rejected(OpRequestCertification, caller, err)
	}
	batch, err := l.loadBatch(batchID)
	if err != nil {
		return 0, l.rejected(OpRequestCertification, caller, err)
	}
	if batch.Status < StatusSlaughtered {
		return 0, l.rejected(OpRequestCertification, caller, newError(CodeInvalidTransition,
			"batch %d must be slaughtered before certification, status is %s", batchID, batch.Status))
	}
	existing, err := l.BatchCertificate(batchID)
	if err != nil {
		return 0, err
	}
	if existing != 0 {
		return 0, l.rejected(OpRequestCertification, caller, ErrDuplicateCertRequest)
	}

	now, err := l.now()
	if err != nil {
		return 0, err
	}
	id, err := l.nextSequence(seqCert)
	if err != nil {
		return 0, err
	}
	cert := Certificate{
		CertID:         id,
		BatchID:        batchID,
		Slaughterhouse: caller,
		Status:         CertPending,
		IssuedAt:       now,
	}
	if err := l.putJSON(idKey(certPrefix, id), cert); err != nil {
		return 0, err
	}
	if err := l.state.PutState(idKey(batchCertPrefix, batchID), []byte(strconv.FormatUint(id, 10))); err != nil {
		return 0, fmt.Errorf("failed to link batch %d to certificate %d: %w", batchID, id, err)
	}
	if err := l.emit(EventCertificateRequested, CertificateRequested{CertID: id, BatchID: batchID, Slaughterhouse: caller}); err != nil {
		return 0, err
	}
	l.log(caller).Info("certificate requested", zap.Uint64("cert", id), zap.Uint64("batch", batchID))
	return id, nil
}

// ApproveCertificate lets the certifier approve a pending certificate.
func (l *Ledger) ApproveCertificate(caller string, certID uint64, comments string) error {
	cert, err := l.decide(caller, OpApproveCertificate, certID, CertApproved, comments)
	if err != nil {
		return err
	}
	return l.emit(EventCertificateApproved, CertificateApproved{CertID: certID, BatchID: cert.BatchID, Certifier: caller, Comments: comments})
}

// RejectCertificate lets the certifier reject a pending certificate. A
// rejected batch can never be processed.
func (l *Ledger) RejectCertificate(caller string, certID uint64, reason string) error {
	cert, err := l.decide(caller, OpRejectCertificate, certID, CertRejected, reason)
	if err != nil {
		return err
	}
	return l.emit(EventCertificateRejected, CertificateRejected{CertID: certID, BatchID: cert.BatchID, Certifier: caller, Reason: reason})
}

// decide records the single, final verdict on a pending certificate.
func (l *Ledger) decide(caller string, op Operation, certID uint64, verdict CertStatus, comments string) (*Certificate, error) {
	if _, err := l.authorize(caller, op); err != nil {
		return nil, l.rejected(op, caller, err)
	}
	cert, err := l.loadCertificate(certID)
	if err != nil {
		return nil, l.rejected(op, caller, err)
	}
	if cert.Status != CertPending {
		return nil, l.rejected(op, caller, newError(CodeAlreadyDecided, "certificate %d is already %s", certID, cert.Status))
	}

	now, err := l.now()
	if err != nil {
		return nil, err
	}
	cert.Status = verdict
	cert.Certifier = caller
	cert.Comments = comments
	cert.DecidedAt = now
	if err := l.putJSON(idKey(certPrefix, certID), cert); err != nil {
		return nil, err
	}
	l.log(caller).Info("certificate decided", zap.Uint64("cert", certID), zap.Uint64("batch", cert.BatchID), zap.Stringer("status", verdict))
	return cert, nil
}

func (l *Ledger) loadCertificate(certID uint64) (*Certificate, error) {
	var c Certificate
	found, err := l.getJSON(idKey(certPrefix, certID), &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newError(CodeCertificateNotFound, "Certificate does not exist: %d", certID)
	}
	return &c, nil
}

// GetCertificate returns the certificate with certID or CertificateNotFound.
func (l *Ledger) GetCertificate(certID uint64) (*Certificate, error) {
	return l.loadCertificate(certID)
}

// BatchCertificate returns the certificate id linked to a batch, or 0.
func (l *Ledger) BatchCertificate(batchID uint64) (uint64, error) {
	b, err := l.state.GetState(idKey(batchCertPrefix, batchID))
	if err != nil {
		return 0, fmt.Errorf("failed to read certificate of batch %d: %w", batchID, err)
	}
	if b == nil {
		return 0, nil
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt certificate link of batch %d: %w", batchID, err)
	}
	return id, nil
}

// IsHalalCertified is true only when the batch's certificate is approved.
func (l *Ledger) IsHalalCertified(batchID uint64) (bool, error) {
	certID, err := l.BatchCertificate(batchID)
	if err != nil || certID == 0 {
		return false, err
	}
	cert, err := l.loadCertificate(certID)
	if err != nil {
		return false, err
	}
	return cert.Status == CertApproved, nil
}

// CertificateCount is the highest certificate id handed out so far.
func (l *Ledger) CertificateCount() (uint64, error) {
	return l.sequence(seqCert)
}

// PendingCertificates lists certificates awaiting a decision, in id order.
func (l *Ledger) PendingCertificates() ([]Certificate, error) {
	certs := []Certificate{}
	err := l.scan(certPrefix, func(value []byte) error {
		var c Certificate
		if err := json.Unmarshal(value, &c); err != nil {
			return fmt.Errorf("failed to unmarshal certificate: %w", err)
		}
		if c.Status == CertPending {
			certs = append(certs, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

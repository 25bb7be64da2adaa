package main

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/external-dns/endpoint"
	"sigs.k8s.io/external-dns/plan"

	"github.com/lachlan2k/hostsfile-webhook/hostsfile"
)

type HostsfilePersister interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, contents string) error
}

const ttl = 10

var labels = map[string]string{}

// HostsfileProvider is an external-dns provider whose records live in a
// hosts file. Every change is applied as an edit of the loaded document, so
// lines it does not manage are written back untouched.
type HostsfileProvider struct {
	doc *hostsfile.Document

	lock      sync.Mutex
	persister HostsfilePersister
	comment   string
	domains   []string
	metrics   *providerMetrics
}

type ProviderOptions struct {
	// Comment is written after every entry the provider adds. Empty means
	// no comment.
	Comment       string
	DomainFilters []string
	Metrics       *providerMetrics
}

func NewHostsfileProvider(persister HostsfilePersister, opts ProviderOptions) *HostsfileProvider {
	m := opts.Metrics
	if m == nil {
		m = newProviderMetrics(nil)
	}
	return &HostsfileProvider{
		persister: persister,
		comment:   opts.Comment,
		domains:   opts.DomainFilters,
		metrics:   m,
	}
}

// Caller must hold lock
func (h *HostsfileProvider) load(ctx context.Context) error {
	contents, err := h.persister.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read hosts file: %w", err)
	}
	h.doc = hostsfile.Load(contents)
	return nil
}

// Caller must hold lock
func (h *HostsfileProvider) persist(ctx context.Context) error {
	if !h.doc.IsModified() {
		log.Debug("Hosts file unchanged, skipping write")
		return nil
	}
	if err := h.persister.Write(ctx, h.doc.String()); err != nil {
		h.metrics.persistFailures.Inc()
		return fmt.Errorf("failed to write hosts file: %w", err)
	}
	return nil
}

// Caller must hold lock
func (h *HostsfileProvider) has(host string, addr netip.Addr) bool {
	for _, e := range h.doc.Entries() {
		if e.HostName != host {
			continue
		}
		if a, err := e.Addr(); err == nil && a == addr {
			return true
		}
	}
	return false
}

// Caller must hold lock
func (h *HostsfileProvider) insert(ep *endpoint.Endpoint) {
	if !supportedRecordType(ep.RecordType) {
		log.Warnf("Only A and AAAA records are supported, received %q", ep.RecordType)
		return
	}
	if len(ep.Targets) == 0 {
		log.Warnf("Endpoint %q contained no targets", ep.DNSName)
		return
	}

	for _, target := range ep.Targets {
		addr, ok := parseTarget(ep, target)
		if !ok {
			continue
		}
		if h.has(ep.DNSName, addr) {
			log.Debugf("Entry %s -> %s already present", ep.DNSName, addr)
			continue
		}
		h.doc.Append(ep.DNSName, addr, h.comment)
		h.metrics.changes.WithLabelValues("create").Inc()
	}
}

// Caller must hold lock
func (h *HostsfileProvider) remove(ep *endpoint.Endpoint) {
	for _, target := range ep.Targets {
		addr, ok := parseTarget(ep, target)
		if !ok {
			continue
		}
		removed := 0
		for h.doc.RemoveEntry(ep.DNSName, addr) {
			removed++
		}
		if removed == 0 {
			log.Debugf("Entry %s -> %s not present, nothing to delete", ep.DNSName, addr)
			continue
		}
		h.metrics.changes.WithLabelValues("delete").Add(float64(removed))
	}
}

func supportedRecordType(recordType string) bool {
	return recordType == endpoint.RecordTypeA || recordType == endpoint.RecordTypeAAAA
}

func parseTarget(ep *endpoint.Endpoint, target string) (netip.Addr, bool) {
	addr, err := hostsfile.ParseAddress(target)
	if err != nil {
		log.WithError(err).Warnf("Skipping target of endpoint %q", ep.DNSName)
		return netip.Addr{}, false
	}
	if recordTypeFor(addr) != ep.RecordType {
		log.Warnf("Target %s does not match record type %s of endpoint %q", addr, ep.RecordType, ep.DNSName)
		return netip.Addr{}, false
	}
	return addr, true
}

func recordTypeFor(addr netip.Addr) string {
	if addr.Unmap().Is4() {
		return endpoint.RecordTypeA
	}
	return endpoint.RecordTypeAAAA
}

func (h *HostsfileProvider) Records(ctx context.Context) ([]*endpoint.Endpoint, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if err := h.load(ctx); err != nil {
		return nil, err
	}

	type key struct{ host, recordType string }
	byKey := map[key]*endpoint.Endpoint{}
	records := []*endpoint.Endpoint{}

	for _, e := range h.doc.Entries() {
		addr, err := e.Addr()
		if err != nil {
			log.WithError(err).Warnf("Skipping hosts entry for %q", e.HostName)
			continue
		}

		k := key{e.HostName, recordTypeFor(addr)}
		ep, ok := byKey[k]
		if !ok {
			ep = &endpoint.Endpoint{
				DNSName:    e.HostName,
				RecordType: k.recordType,
				RecordTTL:  ttl,
				Labels:     labels,
			}
			byKey[k] = ep
			records = append(records, ep)
		}
		if !containsTarget(ep.Targets, addr.String()) {
			ep.Targets = append(ep.Targets, addr.String())
		}
	}

	h.metrics.records.Set(float64(len(records)))
	return records, nil
}

func containsTarget(targets endpoint.Targets, target string) bool {
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}

func (h *HostsfileProvider) ApplyChanges(ctx context.Context, changes *plan.Changes) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if err := h.load(ctx); err != nil {
		return err
	}

	for _, toDelete := range changes.Delete {
		log.Infof("Deleting endpoint %q", toDelete.String())
		h.remove(toDelete)
	}

	// We get UpdateOld of what to remove and UpdateNew of what to add.
	for i, old := range changes.UpdateOld {
		log.Infof("Removing existing endpoint %d for update %q", i, old.String())
		h.remove(old)
	}

	for _, toCreate := range changes.Create {
		log.Infof("Creating endpoint %q", toCreate.String())
		h.insert(toCreate)
	}

	for i, toUpdate := range changes.UpdateNew {
		log.Infof("Updating endpoint %d for update %q", i, toUpdate.String())
		h.insert(toUpdate)
	}

	return h.persist(ctx)
}

func (h *HostsfileProvider) AdjustEndpoints(endpoints []*endpoint.Endpoint) ([]*endpoint.Endpoint, error) {
	for _, endpoint := range endpoints {
		endpoint.RecordTTL = ttl
		endpoint.Labels = labels
	}

	return endpoints, nil
}

func (h *HostsfileProvider) GetDomainFilter() endpoint.DomainFilterInterface {
	return endpoint.NewDomainFilter(h.domains)
}

package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

func (s *Store) CreateClient(_ context.Context, c domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if sameText(existing.ClientCode, c.ClientCode) {
			return nil, ports.ErrDuplicate
		}
	}
	c.ID = s.nextID()
	c.CreatedAt = s.stamp()
	s.clients[c.ID] = c
	return &c, nil
}

func (s *Store) GetClient(_ context.Context, id int64) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListClients(_ context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientCode < out[j].ClientCode })
	return out, nil
}

func (s *Store) ClientCodesWithPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, c := range s.clients {
		if strings.HasPrefix(strings.ToUpper(c.ClientCode), strings.ToUpper(prefix)) {
			out = append(out, c.ClientCode)
		}
	}
	return out, nil
}

func (s *Store) CreateOrder(_ context.Context, o domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[o.ClientID]; !ok {
		return nil, ports.ErrNotFound
	}
	o.ID = s.nextID()
	o.CreatedAt = s.stamp()
	o.UpdatedAt = o.CreatedAt
	s.orders[o.ID] = o
	return &o, nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &o, nil
}

func (s *Store) ListOrders(_ context.Context, f ports.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, o := range s.orders {
		if f.ClientID != nil && o.ClientID != *f.ClientID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Month != nil && !f.Month.Contains(o.OrderDate) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SetOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = s.stamp()
	s.orders[id] = o
	return &o, nil
}

func (s *Store) CreateEarning(_ context.Context, e domain.Earning) (*domain.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[e.ClientID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if e.OrderID != nil {
		for _, existing := range s.earnings {
			if existing.OrderID != nil && *existing.OrderID == *e.OrderID {
				return nil, ports.ErrDuplicate
			}
		}
	}
	e.ID = s.nextID()
	e.ClientName = c.Name
	e.CreatedAt = s.stamp()
	e.UpdatedAt = e.CreatedAt
	s.earnings[e.ID] = e
	return &e, nil
}

func (s *Store) GetEarning(_ context.Context, id int64) (*domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.earnings[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &e, nil
}

func (s *Store) GetEarningByOrder(_ context.Context, orderID int64) (*domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.earnings {
		if e.OrderID != nil && *e.OrderID == orderID {
			return &e, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) ListEarnings(_ context.Context, f ports.EarningFilter) ([]domain.Earning, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Earning
	for _, e := range s.earnings {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.ClientID != nil && e.ClientID != *f.ClientID {
			continue
		}
		if f.Month != "" && e.Month != f.Month {
			continue
		}
		if f.PaidFrom != nil || f.PaidTo != nil {
			if e.PaidAt == nil || !inRange(*e.PaidAt, f.PaidFrom, f.PaidTo) {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month > out[j].Month
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (s *Store) MarkEarningPaid(_ context.Context, in domain.Earning) (*domain.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.earnings[in.ID]
	if !ok || e.Status != domain.EarningUnpaid {
		return nil, ports.ErrStateChanged
	}
	e.Fees, e.Tax, e.ConversionRate = in.Fees, in.Tax, in.ConversionRate
	e.NetAmount, e.AmountInBDT = in.NetAmount, in.AmountInBDT
	e.Status = domain.EarningPaid
	e.PaidAt, e.PaidBy, e.Notes = in.PaidAt, in.PaidBy, in.Notes
	e.UpdatedAt = s.stamp()
	s.earnings[e.ID] = e
	return &e, nil
}

func (s *Store) MarkEarningUnpaid(_ context.Context, id int64) (*domain.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.earnings[id]
	if !ok || e.Status != domain.EarningPaid {
		return nil, ports.ErrStateChanged
	}
	e.Status = domain.EarningUnpaid
	e.PaidAt, e.PaidBy = nil, nil
	e.Fees, e.Tax, e.ConversionRate, e.AmountInBDT = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	e.NetAmount = e.GrossAmount
	e.UpdatedAt = s.stamp()
	s.earnings[id] = e
	return &e, nil
}

func (s *Store) UpdateEarningGross(_ context.Context, id int64, gross decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.earnings[id]
	if !ok || e.Status != domain.EarningUnpaid {
		return ports.ErrNotFound
	}
	e.GrossAmount, e.NetAmount = gross, gross
	e.UpdatedAt = s.stamp()
	s.earnings[id] = e
	return nil
}

func (s *Store) SetEarningLegacy(_ context.Context, id int64, legacy bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.earnings[id]
	if !ok {
		return ports.ErrNotFound
	}
	e.IsLegacy = legacy
	e.UpdatedAt = s.stamp()
	s.earnings[id] = e
	return nil
}

func (s *Store) DeleteEarning(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.earnings[id]
	if !ok || e.Status != domain.EarningUnpaid {
		return ports.ErrNotFound
	}
	delete(s.earnings, id)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID()
	e.CreatedAt = s.stamp()
	s.expenses[e.ID] = e
	return &e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &e, nil
}

func (s *Store) ListExpenses(_ context.Context, f ports.ExpenseFilter) ([]domain.Expense, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Expense
	for _, e := range s.expenses {
		if !inRange(e.Date, f.From, f.To) {
			continue
		}
		if f.BranchID != nil && (e.BranchID == nil || *e.BranchID != *f.BranchID) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (s *Store) UpdateExpensePayment(_ context.Context, id int64, status domain.ExpenseStatus, paid decimal.Decimal) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	e.Status, e.PaidAmount = status, paid
	s.expenses[id] = e
	return &e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) CreatePerson(_ context.Context, p domain.Person) (*domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID()
	p.CreatedAt = s.stamp()
	s.persons[p.ID] = p
	return &p, nil
}

func (s *Store) GetPerson(_ context.Context, id int64) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPersons(_ context.Context) ([]domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Person, 0, len(s.persons))
	for _, p := range s.persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateDebit(_ context.Context, d domain.Debit) (*domain.Debit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[d.PersonID]; !ok {
		return nil, ports.ErrNotFound
	}
	d.ID = s.nextID()
	d.CreatedAt = s.stamp()
	s.debits[d.ID] = d
	return &d, nil
}

func (s *Store) ListDebits(_ context.Context, personID *int64) ([]domain.Debit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Debit
	for _, d := range s.debits {
		if personID != nil && d.PersonID != *personID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) DeleteDebit(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debits[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.debits, id)
	return nil
}

func (s *Store) CreateShareholder(_ context.Context, sh domain.Shareholder) (*domain.Shareholder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = s.nextID()
	sh.CreatedAt = s.stamp()
	sh.UpdatedAt = sh.CreatedAt
	s.shareholders[sh.ID] = sh
	return &sh, nil
}

func (s *Store) UpdateShareholder(_ context.Context, in domain.Shareholder) (*domain.Shareholder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shareholders[in.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	sh.Name, sh.Email, sh.Percentage, sh.Active = in.Name, in.Email, in.Percentage, in.Active
	sh.UpdatedAt = s.stamp()
	s.shareholders[sh.ID] = sh
	return &sh, nil
}

func (s *Store) GetShareholder(_ context.Context, id int64) (*domain.Shareholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shareholders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &sh, nil
}

func (s *Store) ListShareholders(_ context.Context, activeOnly bool) ([]domain.Shareholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Shareholder
	for _, sh := range s.shareholders {
		if activeOnly && !sh.Active {
			continue
		}
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateDistributions(_ context.Context, rows []domain.ProfitDistribution) ([]domain.ProfitDistribution, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rows[0].Period.String()
	for _, d := range s.distributions {
		if d.Period.String() == key {
			return nil, ports.ErrDuplicate
		}
	}
	out := make([]domain.ProfitDistribution, 0, len(rows))
	for _, d := range rows {
		d.ID = s.nextID()
		if sh, ok := s.shareholders[d.ShareholderID]; ok {
			d.Shareholder = sh.Name
		}
		out = append(out, d)
	}
	s.distributions = append(s.distributions, out...)
	return out, nil
}

func (s *Store) ListDistributions(_ context.Context, period *domain.Period) ([]domain.ProfitDistribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ProfitDistribution
	for _, d := range s.distributions {
		if period != nil && d.Period.String() != period.String() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) CreateBusiness(_ context.Context, b domain.ExternalBusiness) (*domain.ExternalBusiness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.businesses {
		if sameText(existing.Name, b.Name) {
			return nil, ports.ErrDuplicate
		}
	}
	b.ID = s.nextID()
	b.CreatedAt = s.stamp()
	s.businesses[b.ID] = b
	return &b, nil
}

func (s *Store) GetBusiness(_ context.Context, id int64) (*domain.ExternalBusiness, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListBusinesses(_ context.Context) ([]domain.ExternalBusiness, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ExternalBusiness, 0, len(s.businesses))
	for _, b := range s.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateTransfer(_ context.Context, t domain.ProfitTransfer) (*domain.ProfitTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[t.BusinessID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	t.ID = s.nextID()
	t.BusinessName = b.Name
	t.CreatedAt = s.stamp()
	s.transfers[t.ID] = t
	return &t, nil
}

func (s *Store) ListTransfers(_ context.Context, businessID *int64, period *domain.Period) ([]domain.ProfitTransfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ProfitTransfer
	for _, t := range s.transfers {
		if businessID != nil && t.BusinessID != *businessID {
			continue
		}
		if period != nil && !period.ContainsDate(t.TransferDate) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// LedgerTotals holds the read lock for the whole computation, giving one snapshot.
func (s *Store) LedgerTotals(_ context.Context, r ports.LedgerRange) (domain.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := domain.LedgerTotals{
		Earnings: decimal.Zero, Expenses: decimal.Zero, Transfers: decimal.Zero,
		Distributions: decimal.Zero, Borrowed: decimal.Zero, Returned: decimal.Zero,
	}
	dateFrom, dateTo := r.DateFrom, r.DateTo
	from, to := r.From, r.To
	for _, e := range s.earnings {
		if e.Status == domain.EarningPaid && e.PaidAt != nil && inRange(*e.PaidAt, &from, &to) {
			t.Earnings = t.Earnings.Add(e.AmountInBDT)
		}
	}
	for _, e := range s.expenses {
		if inRange(e.Date, &dateFrom, &dateTo) {
			t.Expenses = t.Expenses.Add(e.Amount)
		}
	}
	for _, tr := range s.transfers {
		if inRange(tr.TransferDate, &dateFrom, &dateTo) {
			t.Transfers = t.Transfers.Add(tr.Amount)
		}
	}
	for _, d := range s.distributions {
		start, _ := d.Period.DateRange()
		if inRange(start, &dateFrom, &dateTo) {
			t.Distributions = t.Distributions.Add(d.ShareAmount)
		}
	}
	for _, d := range s.debits {
		if !inRange(d.Date, &dateFrom, &dateTo) {
			continue
		}
		switch d.Type {
		case domain.DebitBorrow:
			t.Borrowed = t.Borrowed.Add(d.Amount)
		case domain.DebitReturn:
			t.Returned = t.Returned.Add(d.Amount)
		}
	}
	return t, nil
}


package sale

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

// TicketUseCase genera la copia en PDF del ticket de una venta confirmada.
type TicketUseCase struct {
	sales     repository.SaleRepository
	generator TicketPDFGenerator
}

// NewTicketUseCase crea el caso de uso de tickets.
func NewTicketUseCase(sales repository.SaleRepository, generator TicketPDFGenerator) *TicketUseCase {
	return &TicketUseCase{sales: sales, generator: generator}
}

// GenerateTicket carga la venta con sus líneas y produce el PDF.
func (uc *TicketUseCase) GenerateTicket(ctx context.Context, saleID string) ([]byte, error) {
	sale, err := uc.sales.GetByID(saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
	}
	lines, err := uc.sales.ListLines(saleID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		sale.Lines = append(sale.Lines, *l)
	}
	return uc.generator.GenerateTicketPDF(ctx, sale)
}

package metadata

import (
	"fmt"
	"strings"
)

// OrderStatus is one kanban column of the production board.
type OrderStatus string

const (
	OrderSolicitacao         OrderStatus = "SOLICITACAO"
	OrderAguardandoAprovacao OrderStatus = "AGUARDANDO_APROVACAO"
	OrderModelagem           OrderStatus = "MODELAGEM"
	OrderModelagemRevisao    OrderStatus = "MODELAGEM_REVISAO"
	OrderModificado          OrderStatus = "MODIFICADO"
	OrderGravacao            OrderStatus = "GRAVACAO"
	OrderImpressao           OrderStatus = "IMPRESSAO"
	OrderImpressaoConcluida  OrderStatus = "IMPRESSAO_CONCLUIDA"
	OrderFundicao            OrderStatus = "FUNDICAO"
	OrderFundicaoConcluida   OrderStatus = "FUNDICAO_CONCLUIDA"
	OrderLimpeza             OrderStatus = "LIMPEZA"
	OrderCravacao            OrderStatus = "CRAVACAO"
	OrderAcabamento          OrderStatus = "ACABAMENTO"
	OrderPolimento           OrderStatus = "POLIMENTO"
	OrderBanho               OrderStatus = "BANHO"
	OrderControleQualidade   OrderStatus = "CONTROLE_QUALIDADE"
	OrderRetrabalho          OrderStatus = "RETRABALHO"
	OrderEmbalagem           OrderStatus = "EMBALAGEM"
	OrderPronto              OrderStatus = "PRONTO"
	OrderCancelado           OrderStatus = "CANCELADO"
	OrderEnviado             OrderStatus = "ENVIADO"

	// stock fulfilment pipeline
	OrderEstoqueSeparacao OrderStatus = "ESTOQUE_SEPARACAO"
	OrderEstoqueGravacao  OrderStatus = "ESTOQUE_GRAVACAO"
	OrderEstoqueAjuste    OrderStatus = "ESTOQUE_AJUSTE"
	OrderEstoquePronto    OrderStatus = "ESTOQUE_PRONTO"
)

var orderStatuses = []OrderStatus{
	OrderSolicitacao, OrderAguardandoAprovacao, OrderModelagem, OrderModelagemRevisao,
	OrderModificado, OrderGravacao, OrderImpressao, OrderImpressaoConcluida, OrderFundicao,
	OrderFundicaoConcluida, OrderLimpeza, OrderCravacao, OrderAcabamento, OrderPolimento,
	OrderBanho, OrderControleQualidade, OrderRetrabalho, OrderEmbalagem, OrderPronto,
	OrderCancelado, OrderEnviado,
	OrderEstoqueSeparacao, OrderEstoqueGravacao, OrderEstoqueAjuste, OrderEstoquePronto,
}

// NewOrderStatus accepts the label case-insensitively.
func NewOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.isValid() {
		return "", fmt.Errorf("invalid order status: %s", value)
	}
	return status, nil
}

func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) isValid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal marks columns that no longer age.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderPronto, OrderCancelado, OrderEnviado:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsStockPipeline() bool {
	switch s {
	case OrderEstoqueSeparacao, OrderEstoqueGravacao, OrderEstoqueAjuste, OrderEstoquePronto:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

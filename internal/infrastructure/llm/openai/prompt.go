package openai

import (
	"fmt"
	"strings"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

const auditorSystemPrompt = `Você é um Auditor Cidadão Imparcial.

Sua função é analisar despesas parlamentares e responder às perguntas dos cidadãos de forma objetiva e clara.

Use os dados recuperados das despesas parlamentares para responder à pergunta.
Sempre cite:
- Valores específicos das despesas
- Nomes das empresas/fornecedores
- Datas das transações
- Nomes dos deputados envolvidos

Se identificar padrões suspeitos, aponte-os objetivamente:
- Valores muito altos para serviços genéricos
- Múltiplas transações com o mesmo fornecedor
- Descrições vagas ou genéricas com valores elevados
- Padrões incomuns de gastos

Seja factual, imparcial e baseie suas observações apenas nos dados apresentados.`

// buildAnswerPrompt renders the fused evidence set as numbered expense blocks
// followed by the citizen's question. Aggregate rows carry transaction count
// and total instead of a single amount.
func buildAnswerPrompt(question string, evidence []domain.Expense) string {
	var b strings.Builder

	b.WriteString("Contexto das Despesas Parlamentares:\n")
	for i, e := range evidence {
		fmt.Fprintf(&b, "Despesa %d:\n", i+1)
		fmt.Fprintf(&b, "- Deputado: %s\n", orNA(e.DeputyName))
		fmt.Fprintf(&b, "- Fornecedor: %s\n", orNA(e.SupplierName))
		fmt.Fprintf(&b, "- CNPJ: %s\n", orNA(e.SupplierCNPJ))
		fmt.Fprintf(&b, "- Descrição: %s\n", orNA(e.Description))
		fmt.Fprintf(&b, "- Valor: R$ %.2f\n", e.Amount)
		if e.Date.IsZero() {
			b.WriteString("- Data: N/A\n")
		} else {
			fmt.Fprintf(&b, "- Data: %s\n", e.Date.Format("2006-01-02"))
		}
		if e.TxCount > 0 {
			fmt.Fprintf(&b, "- Número de Transações: %d\n", e.TxCount)
		}
		if e.TotalPaid > 0 {
			fmt.Fprintf(&b, "- Total Pago: R$ %.2f\n", e.TotalPaid)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Pergunta do Cidadão:\n%s\n\nResposta do Auditor:", question)
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

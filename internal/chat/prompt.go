package chat

import (
	"fmt"
	"strings"

	"github.com/Dan9191/cashflow-service/internal/models"
)

const maxSuggestions = 3

const basePrompt = `You are a financial assistant specialised in cash-flow analysis and business decisions.

Guidelines:
- Reply in the language the user writes in
- Be professional but approachable
- Focus on cash flow, forecasts and financial recommendations
- Give specific, actionable insights
- Ask for clarification when data is missing

Business context:`

// SystemPrompt describes the assistant and, when a job is attached, its live metrics.
func SystemPrompt(cc *models.ChatContext) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if cc.JobID == "" {
		b.WriteString("\n- Mode: demonstration, no company data")
		b.WriteString("\n- Focus on general advice and best practices")
		b.WriteString("\n- Invite the user to upload their data for a personalised analysis")
		return b.String()
	}

	fmt.Fprintf(&b, "\n- Active analysis (job %s)", cc.JobID)
	fmt.Fprintf(&b, "\n- Current cash balance: %s", money(cc.CashBalance))
	fmt.Fprintf(&b, "\n- Monthly burn rate: %s", money(cc.MonthlyBurn))
	if cc.Runway != nil && *cc.Runway > 0 {
		fmt.Fprintf(&b, "\n- Runway: %.1f months", *cc.Runway)
	} else {
		b.WriteString("\n- Runway: not limited by burn")
	}
	fmt.Fprintf(&b, "\n- Monthly revenue: %s", money(cc.Revenue))
	if cc.BreakRisk != nil {
		fmt.Fprintf(&b, "\n- Probability of running out of cash within the forecast: %.0f%%", *cc.BreakRisk*100)
	}
	if len(cc.RedAlerts) > 0 {
		fmt.Fprintf(&b, "\n- Red alerts: %s", strings.Join(cc.RedAlerts, "; "))
	}
	if cc.Recommended != "" {
		fmt.Fprintf(&b, "\n- Recommended plan: %s", cc.Recommended)
	}
	return b.String()
}

func buildPrompt(history []models.ChatExchange, message string) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation history:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n\n", h.User, h.Assistant)
		}
	}
	fmt.Fprintf(&b, "User: %s\nAssistant:", message)
	return b.String()
}

func money(v *float64) string {
	if v == nil {
		return "not available"
	}
	return fmt.Sprintf("$%.0f", *v)
}

func mentions(message string, words ...string) bool {
	lower := strings.ToLower(message)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Suggestions returns up to three follow-up questions. Topic-specific
// suggestions come before the general ones.
func Suggestions(message string, cc *models.ChatContext) []string {
	var out []string
	if mentions(message, "cash", "flow", "flujo") {
		out = append(out, "Analyse my projected cash flow")
	}
	if mentions(message, "risk", "riesgo", "problem") {
		out = append(out, "Which red alerts should I consider?")
	}
	if mentions(message, "grow", "expand", "crecer") {
		out = append(out, "Sustainable growth strategies")
	}

	if cc != nil && cc.JobID != "" {
		out = append(out,
			"How can I improve my runway?",
			"What risks do you see in my forecast?",
			"Suggest strategies to optimise cash flow",
		)
	} else {
		out = append(out,
			"Which financial metrics should I monitor?",
			"How do I build a cash-flow forecast?",
			"What are the financial best practices?",
		)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func fallbackSuggestions() []string {
	return []string{
		"How is my cash flow?",
		"What do you recommend to improve?",
		"Analyse my risks",
	}
}

func demoReply(message string, cc *models.ChatContext) string {
	switch {
	case mentions(message, "cash", "flow", "flujo", "liquid"):
		if cc.JobID != "" {
			runway := "not limited by burn"
			if cc.Runway != nil && *cc.Runway > 0 {
				runway = fmt.Sprintf("about %.1f months", *cc.Runway)
			}
			return fmt.Sprintf(`Based on your analysis, your cash balance is %s with a monthly burn rate of %s. Your runway is %s. I recommend:

1. **Speed up collections**: automate invoicing and offer early payment discounts
2. **Optimise spending**: review subscriptions and non-essential costs
3. **Diversify revenue**: explore new products or services

Would you like me to go deeper into any of these?`, money(cc.CashBalance), money(cc.MonthlyBurn), runway)
		}
		return `Cash flow is fundamental for any company. Best practices include:

- **Daily monitoring**: review your cash position every day
- **13-week forecasts**: project income and expenses
- **Emergency reserve**: keep 3-6 months of operating expenses
- **Automation**: use tools to speed up collections and payments

Do you have a specific cash-flow challenge?`
	case mentions(message, "forecast", "pronóstico", "project"):
		return `To build effective financial forecasts:

- **Historical data**: use at least 12 months of data
- **Several scenarios**: compute base, optimistic and pessimistic
- **Key drivers**: identify what moves your results the most
- **Regular updates**: review and adjust every month

Which time horizon do you need to project?`
	case mentions(message, "risk", "riesgo", "problem", "alert"):
		tail := "To identify specific risks, upload your financial data."
		if cc.JobID != "" {
			tail = "Based on your analysis, pay special attention to your runway."
			if len(cc.RedAlerts) > 0 {
				tail = "Based on your analysis, address these red alerts first: " + strings.Join(cc.RedAlerts, "; ") + "."
			}
		}
		return `The main financial risks to monitor:

- **Liquidity risk**: running out of cash
- **Customer concentration**: depending on a few customers
- **Cost overruns**: expenses growing faster than revenue
- **Access to financing**: difficulty raising capital

` + tail + `

Is there a particular risk that worries you?`
	case mentions(message, "metric", "kpi", "indicator", "métrica"):
		return `The most important financial metrics to monitor:

- **Cash balance**: available cash
- **Burn rate**: net monthly spend
- **Runway**: months until cash runs out
- **Gross margin**: gross profit margin
- **Quick ratio**: immediate liquidity

Which industry do you operate in?`
	case mentions(message, "grow", "expand", "crecer"):
		return `Financially sustainable growth strategies:

- **Organic growth**: optimise processes before scaling
- **New products**: expand your offering gradually
- **Partnerships**: strategic collaborations
- **Data-driven**: base decisions on solid metrics

What is your growth goal?`
	}
	return fmt.Sprintf(`I understand your question about "%s". As a financial assistant I can help with:

- **Cash-flow analysis** and liquidity optimisation
- **Financial forecasts** and strategic planning
- **Risk identification** and mitigation strategies
- **Financial KPIs** and performance metrics
- **Sustainable growth** strategies

Could you tell me which area interests you most?`, message)
}

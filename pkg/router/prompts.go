package router

import "strings"

const historyBlock = `Use information from the conversation history only if relevant to the above user query, otherwise ignore the history.
Conversation history with the user:
{history}`

const basicClassifierPrompt = `Given the user question, classify into one of the following categories with expected definitions:

- Factual Questions ("What is...?", "Who invented...?") : Return 'factual'
- Analytical Questions ("How does...?", "Why do...?") : Return 'analytical'
- Comparison Questions ("What's the difference between...?") : Return 'comparison'
- Definition Requests ("Define...", "Explain...") : Return 'definition'

ONLY return the category word as the answer and nothing else. Do not add quotes in the final output.
Return 'default' (without quotes) if the question does not fit into any of the categories.

Prompting by examples:
* Question: What is the highest mountain in the world?
* Response: factual

* Question: What's the difference between OpenAI and Anthropic?
* Response: comparison

User question: {question}

`

const toolsClassifierPrompt = `Given the user question, classify into one of the following categories with expected definitions:

- Factual Questions ("What is...?", "Who invented...?") : Return 'factual'
- Analytical Questions ("How does...?", "Why do...?") : Return 'analytical'
- Comparison Questions ("What's the difference between...?") : Return 'comparison'
- Definition Requests ("Define...", "Explain...") : Return 'definition'
- Any question related to date or time computation: Return 'datetime'
- Any question that requires mathematical calculation to be done: Return 'calculation'. Only return calculation if the calculation is not associated with doing computations on dates or time etc.

ONLY return the category word as the answer and nothing else. Do not add quotes in the final output.
Return 'default' (without quotes) if the question does not fit into any of the categories.

Prompting by examples:
* Question: What is the highest mountain in the world?
* Response: factual

* Question: What's the difference between OpenAI and Anthropic?
* Response: comparison

* Question: What's a 18% tip of $105 bill?
* Response: calculation

* Question: What day is it today? or What is the date of 30 days from now?
* Response: datetime

User question: {question}

`

var responsePrompts = map[StrategyID]string{
	StrategyFactual: `Answer the following question concisely with a direct fact. Avoid unnecessary details.

User question: "{question}"
Answer:

`,
	StrategyAnalytical: `Provide a detailed explanation with reasoning for the following question. Break down the response into logical steps.

User question: "{question}"
Explanation:

`,
	StrategyComparison: `Compare the following concepts. Present the answer in a structured format using bullet points or a table for clarity.

User question: "{question}"
Comparison:

`,
	StrategyDefinition: `Define the following term and provide relevant examples and use cases for better understanding.

User question: "{question}"
Definition:
Examples:
Use Cases:

`,
	StrategyDefault: `Respond your best to answer the following question but keep it very brief.

User question: "{question}"
Answer:

`,
	StrategyCalculation: `You are a smart AI model but cannot do any complex calculations. You are very good at
translating a math question to a simple equation which can be solved by a calculator.

Convert the user question below to a math calculation.
Remember that the calculator can only use +, -, *, /, //, % operators,
so only use those operators and output the final math equation.

User Query: "{question}"

The final output should ONLY contain the valid math equation, no words or any other text.
Otherwise the calculator tool will error out.

Examples:
Question: What is 5 times 20?
Answer: 5 * 20

Question: What is the split of each person for a 4 person dinner of $100 with 20% tip?
Answer: (100 + 0.2*100) / 4

Question: Round 100.5 to the nearest integer.
Answer: 100.5 // 1

`,
	StrategyDatetime: `You are a smart AI which is very good at translating a question in english
to a short Go snippet that prints the result. You'll only be given queries related
to date and time; generate the statements required to get the answer.
Your statements are placed inside a function body and run by a Go interpreter.
Print the answer with fmt on the final line.

These are the ONLY Go packages you have access to, already imported: fmt, time, math, strings.
Do not write package clauses, import statements or function declarations.

User Query: "{question}"

The final output should ONLY contain valid Go statements, no words or any other text.
Otherwise the interpreter will error out. Avoid returning code fences or the word go
in the output, just return the code directly.

Examples:
Question: What day is it today?
Answer: fmt.Println(time.Now().Weekday())

Question: What is the date of 30 days from now?
Answer: fmt.Println(time.Now().AddDate(0, 0, 30).Format("2006-01-02"))

`,
}

// renderPrompt binds the request into a template and appends the history
// paragraph every template carries.
func renderPrompt(template, question, history string) string {
	r := strings.NewReplacer("{question}", question, "{history}", history)
	return r.Replace(template + historyBlock)
}

func classifierPrompt(v Variant) string {
	if v == VariantTools {
		return toolsClassifierPrompt
	}
	return basicClassifierPrompt
}

package mcpserver

// IntentContract documents the raw intent field bag for MCP clients that
// construct intents themselves instead of calling the tools.
const IntentContract = `# Raw Intent Contract

A raw intent is a flat JSON object. Unknown fields are ignored.

## Fields

- ` + "`intent`" + ` (required): one of ` + "`book`" + `/` + "`book_schedule`" + `,
  ` + "`cancel`" + `/` + "`cancel_schedule`" + `, ` + "`list`" + `/` + "`get_schedule`" + `.
- ` + "`title`" + ` or ` + "`description`" + `: appointment title. Required for booking,
  optional match criterion for cancelling.
- ` + "`participant`" + `: person the appointment is with.
- ` + "`date`" + `: date expression. Relative ("tomorrow", "next friday"),
  absolute ("2024-03-05", "march 5 2024"), or combined with a time
  ("tomorrow at 3pm"). Required for booking.
- ` + "`time`" + `: time expression ("3pm", "10:30", "noon"). Joined with
  ` + "`date`" + ` before parsing.
- ` + "`duration_minutes`" + `: booking length. Defaults to the configured
  duration when omitted.
- ` + "`id`" + `: appointment number, the strongest cancel criterion.
- ` + "`date_filter`" + `: listing filter. "today", "tomorrow", "week",
  "month", or any date expression for that single day. Omit for all
  active appointments.

## Examples

	{"intent": "book", "title": "Dentist", "date": "tomorrow", "time": "3pm"}
	{"intent": "cancel_schedule", "id": 7}
	{"intent": "get_schedule", "date_filter": "week"}
`

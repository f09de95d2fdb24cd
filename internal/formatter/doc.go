// package formatter renders content and transformation jobs as text, CSV, Markdown or JSON
package formatter

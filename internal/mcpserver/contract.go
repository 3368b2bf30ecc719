package mcpserver

// WireContract describes the model.json shape the conversion tools accept
// and the CDM folder documents they produce.
const WireContract = `# cdmbridge Wire Contract

Tools read model.json documents and either write them back unchanged in
meaning or render them as CDM folder documents.

## model.json

` + "```" + `json
{
  "name": "Sales",                        // REQUIRED - becomes the manifest name
  "version": "1.0",                       // defaults to 1.0 when absent
  "description": "optional",
  "culture": "en-US",
  "modifiedTime": "2025-01-20T10:00:00Z", // RFC 3339
  "pbi:mashup": { "fastCombine": false }, // extension property, kept verbatim
  "entities": [
    {
      "$type": "LocalEntity",             // other entity types are skipped with a warning
      "name": "Customer",
      "attributes": [ { "name": "id", "dataType": "int64" } ],
      "partitions": [
        { "name": "p1", "location": "https://acct.dfs.core.windows.net/fs/customer.csv" }
      ]
    }
  ],
  "relationships": [
    {
      "$type": "SingleKeyRelationship",
      "fromAttribute": { "entityName": "Order", "attributeName": "customerId" },
      "toAttribute":   { "entityName": "Customer", "attributeName": "id" }
    }
  ]
}
` + "```" + `

## Rules

1. **Extension properties** are top-level keys of the form ` + "`" + `namespace:name` + "`" + `.
   They become ` + "`" + `is.extension.<namespace>` + "`" + ` traits and are emitted again on write.
2. **Entity names are unique** within a model. A duplicate is reported and skipped.
3. **Relationships** must name entities declared in the same model. Unknown
   entities are reported and the relationship is dropped.
4. **Data types** are the model.json names: string, int64, double, dateTime,
   dateTimeOffset, decimal, boolean, guid, json. Unknown names are kept and reported.
5. **Partition locations** must resolve to a mounted storage namespace.
6. **Folder** arguments are corpus paths such as ` + "`" + `local:/sales/` + "`" + `. A missing
   namespace means the default one.

## CDM folder output

- One ` + "`" + `<Entity>.cdm.json` + "`" + ` document per local entity, holding its definition.
- ` + "`" + `custom.extension.cdm.json` + "`" + ` holding trait definitions for every extension
  namespace the model uses.

## Diagnostics

Every tool result carries the warnings and errors raised during conversion.
A warning means something was skipped; the rest of the document still converts.
`

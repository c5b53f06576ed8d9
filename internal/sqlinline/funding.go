package sqlinline

const fundingColumns = `id, hash, title, funder, description, kind, sectors, amount_min, amount_max, currency, deadline, url, source, eligibility, created_at, updated_at`

// QUpsertFunding returns true in the last column when the row was inserted.
const QUpsertFunding = `--sql f242f7c7-eedc-492c-b3cf-5647de1d7d0c
insert into funding_opportunities (id, hash, title, funder, description, kind, sectors, amount_min, amount_max, currency, deadline, url, source, eligibility, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::text, $6::text[], $7::bigint, $8::bigint, $9::text, $10::date, $11::text, $12::text, $13::text, now(), now())
on conflict (hash) do update set
    funder = excluded.funder,
    description = excluded.description,
    kind = excluded.kind,
    sectors = excluded.sectors,
    amount_min = excluded.amount_min,
    amount_max = excluded.amount_max,
    currency = excluded.currency,
    deadline = excluded.deadline,
    eligibility = excluded.eligibility,
    updated_at = now()
returning id, (xmax = 0) as inserted;
`

const QListFunding = `--sql e93e19b1-cc60-4de7-86c0-e632a8bd8050
select ` + fundingColumns + `
from funding_opportunities
where ($1::text = '' or $1::text = any(sectors))
  and ($2::text = '' or title ilike '%' || $2::text || '%' or description ilike '%' || $2::text || '%' or funder ilike '%' || $2::text || '%')
  and (not $3::boolean or deadline is null or deadline >= $4::date)
order by deadline asc nulls last, created_at desc
limit $5::int offset $6::int;
`

const QSelectFunding = `--sql 0c5f7f81-c273-46a7-b2e3-005ad5c8f57c
select ` + fundingColumns + `
from funding_opportunities
where id = $1::uuid
limit 1;
`

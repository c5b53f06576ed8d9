package sqlinline

const QInsertDiagnostic = `--sql fbc66d3e-b36e-4952-a910-eeb24042f5e8
insert into diagnostics (id, user_id, answers, scores, overall, band, recommendations, created_at)
values (gen_random_uuid(), $1::uuid, $2::jsonb, $3::jsonb, $4::int, $5::text, $6::jsonb, now())
returning id, user_id, answers, scores, overall, band, recommendations, created_at;
`

const QListDiagnostics = `--sql aed5fd66-a714-412b-b6da-8f0569674b9b
select id, user_id, answers, scores, overall, band, recommendations, created_at
from diagnostics
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`
